package main

import (
	"backoffice_app_go/config"
	"backoffice_app_go/db"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func main() {
	kind := flag.String("type", "user", "account type: user (staff) or salarie")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Initialize database
	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	// Run migrations
	if err := db.AutoMigrate(database, models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		value, _ := reader.ReadString('\n')
		return strings.TrimSpace(value)
	}

	switch models.AudienceType(*kind) {
	case models.AudienceUser:
		fmt.Println("=== Create Staff User ===")
		fmt.Println()

		name := prompt("Name: ")
		email := strings.ToLower(prompt("Email: "))
		role := prompt("Role (admin, direction, etudes-techniques, ressources-humaines, logistique, staff) [staff]: ")
		if role == "" {
			role = models.RoleStaff
		}
		password := readPassword()

		if name == "" || email == "" || password == "" {
			log.Fatal("Name, email, and password are required")
		}
		if err := services.ValidatePassword(password); err != nil {
			log.Fatalf("Invalid password: %v", err)
		}

		// Check if user already exists
		var existing models.User
		if err := database.Where("LOWER(email) = ?", email).First(&existing).Error; err == nil {
			log.Fatalf("User with email %s already exists", email)
		}

		hashedPassword, err := services.HashPassword(password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		user := &models.User{Name: name, Email: email, Password: hashedPassword, Role: role, IsActive: true}
		if err := database.Create(user).Error; err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}

		fmt.Println()
		fmt.Println("✓ User created successfully!")
		fmt.Printf("  ID: %s\n", user.ID)
		fmt.Printf("  Name: %s\n", user.Name)
		fmt.Printf("  Email: %s\n", user.Email)
		fmt.Printf("  Role: %s\n", user.Role)

	case models.AudienceSalarie:
		fmt.Println("=== Create Salarie ===")
		fmt.Println()

		in := services.CreateSalarieInput{
			Nom:    prompt("Nom: "),
			Prenom: prompt("Prénom: "),
			Email:  prompt("Email: "),
			Poste:  prompt("Poste: "),
		}
		in.Password = readPassword()

		// HR is notified so the profile gets validated
		dispatcher := services.NewDispatcher(database, nil)
		workforce := services.NewWorkforceService(database, dispatcher, cfg.Location())
		salarie, err := workforce.CreateSalarie(context.Background(), in)
		if salarie == nil {
			if errors.Is(err, services.ErrEmailTaken) {
				log.Fatalf("Salarie with email %s already exists", in.Email)
			}
			log.Fatalf("Failed to create salarie: %v", err)
		}
		if err != nil {
			log.Printf("Warning: HR could not be notified: %v", err)
		}

		fmt.Println()
		fmt.Println("✓ Salarie created successfully!")
		fmt.Printf("  ID: %s\n", salarie.ID)
		fmt.Printf("  Name: %s\n", salarie.FullName())
		fmt.Printf("  Email: %s\n", salarie.Email)

	default:
		log.Fatalf("Unknown account type %q (user or salarie)", *kind)
	}
}

func readPassword() string {
	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	fmt.Println() // New line after password input
	return string(passwordBytes)
}
