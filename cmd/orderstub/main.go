package main

import (
	"log"
	"net/http"

	"kiosk/internal/orderstub"

	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.String("addr", ":3001", "listen address")
	fixturePath := pflag.String("fixture", "", "YAML file with users and menu (built-in data when empty)")
	pflag.Parse()

	fixture := orderstub.DefaultFixture()
	if *fixturePath != "" {
		f, err := orderstub.LoadFixture(*fixturePath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fixture = f
	}

	log.Printf("Order stub listening on %s (%d users, %d dishes)", *addr, len(fixture.Users), len(fixture.Menu.Dishes))
	if err := http.ListenAndServe(*addr, orderstub.NewServer(fixture)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
