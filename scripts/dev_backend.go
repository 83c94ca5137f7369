package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/franciscosanchezn/pizza-storefront/internal/fakebackend"
	"github.com/sirupsen/logrus"
)

// Runs an in-memory pizza backend for local development of the storefront.
//
//	go run ./scripts -addr :3000 -email dev@example.com -password dev-secret-123
func main() {
	addr := flag.String("addr", ":3000", "Listen address")
	username := flag.String("username", "dev", "Seeded user name")
	email := flag.String("email", "dev@example.com", "Seeded user email")
	password := flag.String("password", "dev-secret-123", "Seeded user password")
	legacy := flag.Bool("legacy", false, "Serve ingredients without category and group")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of issued tokens")
	failOrdersAfter := flag.Int("fail-orders-after", -1, "Fail every order row after this many (negative never fails)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	fakebackend.SetLevel(logrus.InfoLevel)

	opts := []fakebackend.Option{fakebackend.WithTokenTTL(*tokenTTL)}
	if *legacy {
		opts = append(opts, fakebackend.WithLegacyCatalog())
	}
	server, err := fakebackend.New(opts...)
	if err != nil {
		log.WithError(err).Fatal("Failed to start backend")
	}
	defer server.Close()
	server.FailOrdersAfter(*failOrdersAfter)

	user, err := server.CreateUser(context.Background(), *username, *email, *password)
	if err != nil {
		log.WithError(err).Fatal("Failed to seed user")
	}

	fmt.Println("Development backend ready")
	fmt.Printf("API_BASE_URL: http://localhost%s\n", *addr)
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Password: %s\n", *password)

	if err := http.ListenAndServe(*addr, server.Handler()); err != nil {
		log.WithError(err).Fatal("Backend stopped")
	}
}
