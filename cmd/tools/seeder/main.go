package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(db)
	catIDs := seedCategories(db)
	seedCatalog(db, catIDs)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	users := []string{"Administrador", "Ana Cajera", "Luis Vendedor"}

	fmt.Println("Seeding Users...")
	for _, name := range users {
		_, err := db.Exec(`
			INSERT INTO users (display_name)
			SELECT $1::text WHERE NOT EXISTS (SELECT 1 FROM users WHERE display_name = $1::text);
		`, name)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", name, err)
		}
	}
}

func seedCategories(db *sql.DB) map[string]int64 {
	categories := []string{"Vestidos", "Blusas", "Pantalones", "Faldas", "Accesorios"}

	fmt.Println("Seeding Categories...")
	ids := make(map[string]int64, len(categories))
	for _, name := range categories {
		var id int64
		err := db.QueryRow(`
			INSERT INTO categories (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id;
		`, name).Scan(&id)
		if err != nil {
			log.Printf("Failed to upsert category %s: %v", name, err)
			continue
		}
		ids[name] = id
	}
	return ids
}

type variantSeed struct {
	Barcode string
	Size    string
	Color   string
	Price   string
	Stock   int
}

func seedCatalog(db *sql.DB, catIDs map[string]int64) {
	products := []struct {
		Name        string
		Description string
		Category    string
		Variants    []variantSeed
	}{
		{"Vestido Lino", "Vestido largo de lino", "Vestidos", []variantSeed{
			{"7501000000011", "S", "Negro", "899.00", 4},
			{"7501000000012", "M", "Negro", "899.00", 6},
			{"7501000000013", "M", "Arena", "899.00", 3},
		}},
		{"Blusa Seda", "Blusa de seda manga corta", "Blusas", []variantSeed{
			{"7501000000021", "CH", "Blanco", "459.50", 8},
			{"7501000000022", "M", "Rosa", "459.50", 5},
		}},
		{"Pantalon Palazzo", "Pantalon de tiro alto", "Pantalones", []variantSeed{
			{"7501000000031", "28", "Beige", "649.00", 7},
			{"7501000000032", "30", "Negro", "649.00", 2},
		}},
		{"Falda Plisada", "Falda midi plisada", "Faldas", []variantSeed{
			{"7501000000041", "Unitalla", "Verde", "529.90", 5},
		}},
		{"Bolso Tejido", "Bolso de palma tejida", "Accesorios", []variantSeed{
			{"7501000000051", "", "Natural", "349.00", 10},
		}},
	}

	fmt.Println("Seeding Products and Variants...")
	for _, p := range products {
		catID, ok := catIDs[p.Category]
		if !ok {
			log.Printf("Skipping product %s: category %s missing", p.Name, p.Category)
			continue
		}
		var productID int64
		err := db.QueryRow(`SELECT id FROM products WHERE name = $1 AND category_id = $2`, p.Name, catID).Scan(&productID)
		if err == sql.ErrNoRows {
			err = db.QueryRow(`
				INSERT INTO products (name, description, category_id)
				VALUES ($1, $2, $3)
				RETURNING id;
			`, p.Name, p.Description, catID).Scan(&productID)
		}
		if err != nil {
			log.Printf("Failed to upsert product %s: %v", p.Name, err)
			continue
		}

		for _, v := range p.Variants {
			_, err := db.Exec(`
				INSERT INTO variants (product_id, barcode, size, color, sale_price, stock)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (barcode) DO UPDATE SET sale_price = EXCLUDED.sale_price, stock = EXCLUDED.stock;
			`, productID, v.Barcode, v.Size, v.Color, v.Price, v.Stock)
			if err != nil {
				log.Printf("Failed to upsert variant %s: %v", v.Barcode, err)
			}
		}
	}
}
