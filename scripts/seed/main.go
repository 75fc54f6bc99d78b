package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/meridian-pos/meridian-pos/internal/app"
	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/credentials"
	"github.com/meridian-pos/meridian-pos/internal/customers"
	"github.com/meridian-pos/meridian-pos/internal/platform/filestore"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type seedFile struct {
	Products []struct {
		ID        string          `yaml:"id"`
		Name      string          `yaml:"name"`
		Price     float64         `yaml:"price"`
		Stock     int             `yaml:"stock"`
		Discounts map[int]float64 `yaml:"discounts"`
	} `yaml:"products"`
	Customers []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Type  string `yaml:"type"`
		Phone string `yaml:"phone"`
	} `yaml:"customers"`
	Users []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

func main() {
	path := "scripts/seed/seed.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("parse seed file: %v", err)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)
	store := filestore.New(logger, nil)

	fmt.Println("→ Seeding products...")
	if err := seedProducts(store, cfg, seed); err != nil {
		log.Fatalf("seed products: %v", err)
	}
	fmt.Println("→ Seeding customers...")
	if err := seedCustomers(store, cfg, seed); err != nil {
		log.Fatalf("seed customers: %v", err)
	}
	fmt.Println("→ Seeding users...")
	if err := seedUsers(store, cfg, seed); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	fmt.Println("✓ Seed complete")
}

func seedProducts(store *filestore.Store, cfg *app.Config, seed seedFile) error {
	repo, err := catalog.Open(store, cfg.ProductsFile, nil)
	if err != nil {
		return err
	}
	for _, p := range seed.Products {
		_, err := repo.Add(catalog.Product{
			ID:            p.ID,
			Name:          p.Name,
			UnitPrice:     p.Price,
			Stock:         p.Stock,
			DiscountRules: p.Discounts,
		})
		if skipExisting(err, p.ID) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func seedCustomers(store *filestore.Store, cfg *app.Config, seed seedFile) error {
	repo, err := customers.Open(store, cfg.CustomersFile, nil)
	if err != nil {
		return err
	}
	for _, c := range seed.Customers {
		_, err := repo.Add(customers.Customer{
			ID:    c.ID,
			Name:  c.Name,
			Type:  customers.ParseType(c.Type),
			Phone: c.Phone,
		})
		if skipExisting(err, c.ID) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func seedUsers(store *filestore.Store, cfg *app.Config, seed seedFile) error {
	repo, err := credentials.Open(store, cfg.UsersFile, nil)
	if err != nil {
		return err
	}
	for _, u := range seed.Users {
		if _, err := repo.FindByUsername(u.Username); err == nil {
			fmt.Printf("  user %s already present, skipping\n", u.Username)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := repo.Add(credentials.Credential{
			Username:     u.Username,
			PasswordHash: string(hash),
			Role:         u.Role,
		}); err != nil {
			return err
		}
	}
	return nil
}

// skipExisting treats a duplicate-ID validation error as "already seeded".
func skipExisting(err error, id string) bool {
	var ve *shared.ValidationError
	if errors.As(err, &ve) && ve.Field == "id" {
		fmt.Printf("  %s already present, skipping\n", id)
		return true
	}
	return false
}
