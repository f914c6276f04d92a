package orderstub

import (
	"fmt"
	"os"

	"kiosk/internal/model"

	"gopkg.in/yaml.v3"
)

// Fixture is the data served by the stub.
type Fixture struct {
	Users []model.User `yaml:"users"`
	Menu  model.Menu   `yaml:"menu"`
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// DefaultFixture returns the users and menu used when no file is given.
func DefaultFixture() *Fixture {
	return &Fixture{
		Users: []model.User{
			{ID: "1", Username: "admin", BarcodeID: "ADMIN001", Role: "admin", HeartValue: 1000},
			{ID: "2", Username: "alice", BarcodeID: "123456789", Role: "user", HeartValue: 200},
		},
		Menu: model.Menu{
			Categories: []model.Category{
				{ID: "main", Name: "Main dishes"},
				{ID: "drinks", Name: "Drinks"},
			},
			Dishes: []model.Dish{
				{ID: 1, CategoryID: "main", Name: "Fried rice", Price: 18},
				{ID: 2, CategoryID: "main", Name: "Noodle soup", Price: 22},
				{ID: 3, CategoryID: "drinks", Name: "Lemon tea", Price: 8},
			},
		},
	}
}
