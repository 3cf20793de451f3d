package main

import (
	"backoffice_app_go/models"
	"backoffice_app_go/services/feed"
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
)

const reconnectDelay = 5 * time.Second

// Terminal notification feed: prints the actor's notifications, follows the
// real-time stream and accepts commands on stdin.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "back office base URL")
	kind := flag.String("type", "user", "account type: user (staff) or salarie")
	email := flag.String("email", "", "login email")
	flag.Parse()

	audience, err := feed.AudienceFor(models.AudienceType(*kind))
	if err != nil {
		log.Fatal(err)
	}
	if *email == "" {
		log.Fatal("-email is required")
	}

	password := os.Getenv("FEED_PASSWORD")
	if password == "" {
		fmt.Print("Password: ")
		b, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatalf("Failed to read password: %v", err)
		}
		fmt.Println()
		password = string(b)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := feed.NewClient(*baseURL, audience)
	if err := client.Login(ctx, *email, password); err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	f := feed.New(audience, client)
	f.Alerter = feed.AlerterFunc(func(v models.NotificationView) {
		fmt.Print("\a")
		printNotification(f.Describe(v))
	})

	if err := f.Load(ctx); err != nil {
		log.Fatalf("Failed to load notifications: %v", err)
	}
	printList(f)

	go follow(ctx, f, client)
	go commands(ctx, f, stop)

	<-ctx.Done()
}

// follow keeps the stream open, reloading the list after each reconnect so
// nothing sent while disconnected is missed.
func follow(ctx context.Context, f *feed.Feed, client *feed.Client) {
	for {
		err := client.Subscribe(ctx, func(v models.NotificationView) { f.Receive(v) })
		if ctx.Err() != nil {
			return
		}
		log.Printf("[FEED] Stream closed (%v), reconnecting in %s", err, reconnectDelay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
		if err := f.Load(ctx); err != nil {
			log.Printf("[FEED] Reload failed: %v", err)
		}
	}
}

func commands(ctx context.Context, f *feed.Feed, quit func()) {
	fmt.Println("Commands: list, show <id>, read <id>, read-all, delete <id>, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		id := ""
		if len(fields) > 1 {
			id = fields[1]
		}

		var err error
		switch fields[0] {
		case "list":
			printList(f)
		case "show":
			v, ok := f.Get(id)
			if !ok {
				err = feed.ErrNotFound
				break
			}
			printNotification(f.Describe(v))
		case "read":
			err = f.MarkRead(ctx, id)
		case "read-all":
			err = f.MarkAllRead(ctx)
		case "delete":
			err = f.Delete(ctx, id)
		case "quit", "exit":
			quit()
			return
		default:
			fmt.Println("Unknown command")
			continue
		}

		switch {
		case errors.Is(err, feed.ErrNotFound):
			fmt.Println("Notification introuvable")
		case err != nil:
			fmt.Printf("Erreur : %v\n", err)
		case fields[0] != "list" && fields[0] != "show":
			fmt.Printf("OK (%d non lue(s))\n", f.UnreadCount())
		}
	}
}

func printList(f *feed.Feed) {
	items := f.Items()
	fmt.Printf("%d notification(s), %d non lue(s)\n", len(items), f.UnreadCount())
	for _, v := range items {
		d := f.Describe(v)
		marker := " "
		if d.Unread {
			marker = "*"
		}
		fmt.Printf("%s [%-8s] %s  %s  (%s)\n", marker, d.Badge, d.ID, d.Title, d.CreatedAt.Local().Format("02/01 15:04"))
	}
}

func printNotification(d feed.Description) {
	fmt.Printf("\n[%s] %s\n", d.Badge, d.Title)
	if d.Body != "" {
		fmt.Println(d.Body)
	}
	for _, detail := range d.Details {
		fmt.Printf("  %s : %s\n", detail.Label, detail.Value)
	}
	if d.ActionRequired {
		fmt.Println("  Action requise")
	}
	if d.Link != "" {
		fmt.Printf("  → %s\n", d.Link)
	}
	fmt.Println()
}
