// Seeds the catalog with sample products and variants for local development.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

type seedVariant struct {
	name            string
	additionalPrice string
	stock           int
}

type seedProduct struct {
	slug     string
	name     string
	sku      string
	price    string
	imageURL string
	stock    int
	variants []seedVariant
}

var products = []seedProduct{
	{
		slug: "brazilian-straight-bundle", name: "Brazilian Straight Bundle", sku: "NNH-BRZ-STR",
		price: "650.00", imageURL: "https://cdn.nnhair.example/brazilian-straight.jpg", stock: 40,
		variants: []seedVariant{
			{name: `12"`, additionalPrice: "0.00", stock: 15},
			{name: `16"`, additionalPrice: "150.00", stock: 15},
			{name: `20"`, additionalPrice: "300.00", stock: 10},
		},
	},
	{
		slug: "peruvian-body-wave-bundle", name: "Peruvian Body Wave Bundle", sku: "NNH-PER-BDW",
		price: "720.00", imageURL: "https://cdn.nnhair.example/peruvian-body-wave.jpg", stock: 35,
		variants: []seedVariant{
			{name: `14"`, additionalPrice: "0.00", stock: 20},
			{name: `18"`, additionalPrice: "200.00", stock: 15},
		},
	},
	{
		slug: "hd-lace-closure-4x4", name: "HD Lace Closure 4x4", sku: "NNH-CLS-HD4",
		price: "450.00", imageURL: "https://cdn.nnhair.example/hd-closure.jpg", stock: 25,
	},
	{
		slug: "hd-lace-frontal-13x4", name: "HD Lace Frontal 13x4", sku: "NNH-FRT-HD13",
		price: "850.00", imageURL: "https://cdn.nnhair.example/hd-frontal.jpg", stock: 20,
	},
	{
		slug: "bob-wig-fringe", name: "Bob Wig with Fringe", sku: "NNH-WIG-BOB",
		price: "1250.00", imageURL: "https://cdn.nnhair.example/bob-wig.jpg", stock: 12,
	},
	{
		slug: "wig-care-kit", name: "Wig Care Kit", sku: "NNH-ACC-CARE",
		price: "250.00", imageURL: "https://cdn.nnhair.example/care-kit.jpg", stock: 60,
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer conn.Close(ctx)

	for _, p := range products {
		var productID string
		err := conn.QueryRow(ctx,
			`INSERT INTO products (slug, name, sku, price, image_url, stock_quantity, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, true)
			 ON CONFLICT (slug) DO UPDATE
			 SET name = EXCLUDED.name, price = EXCLUDED.price, image_url = EXCLUDED.image_url,
			     stock_quantity = EXCLUDED.stock_quantity, updated_at = now()
			 RETURNING id`,
			p.slug, p.name, p.sku, p.price, p.imageURL, p.stock).Scan(&productID)
		if err != nil {
			log.Fatalf("seed product %s: %v", p.slug, err)
		}
		for _, v := range p.variants {
			if _, err := conn.Exec(ctx,
				`INSERT INTO product_variants (product_id, name, additional_price, stock_quantity)
				 SELECT $1, $2, $3, $4
				 WHERE NOT EXISTS (
				     SELECT 1 FROM product_variants WHERE product_id = $1 AND name = $2
				 )`,
				productID, v.name, v.additionalPrice, v.stock); err != nil {
				log.Fatalf("seed variant %s/%s: %v", p.slug, v.name, err)
			}
		}
		log.Printf("seeded %s", p.slug)
	}

	log.Println("catalog seeding complete")
}
