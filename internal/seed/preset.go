package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"foodshare/internal/models"
	"foodshare/internal/repository"

	"gopkg.in/yaml.v3"
)

// Preset is a YAML description of a fixed demo data set plus optional
// random filler.
type Preset struct {
	Seed     int64           `yaml:"seed"`
	Center   *Point          `yaml:"center"`
	SpreadKm float64         `yaml:"spreadKm"`
	Users    []PresetUser    `yaml:"users"`
	Listings []PresetListing `yaml:"listings"`
	Random   struct {
		Users    int `yaml:"users"`
		Listings int `yaml:"listings"`
	} `yaml:"random"`
}

type PresetUser struct {
	Username    string `yaml:"username"`
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"displayName"`
	Location    string `yaml:"location"`
}

type PresetListing struct {
	Owner          string   `yaml:"owner"`
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Category       string   `yaml:"category"`
	IsFree         bool     `yaml:"isFree"`
	Price          *float64 `yaml:"price"`
	Quantity       int      `yaml:"quantity"`
	ExpiresInHours int      `yaml:"expiresInHours"`
	Location       string   `yaml:"location"`
	Lat            *float64 `yaml:"lat"`
	Lng            *float64 `yaml:"lng"`
}

// LoadPreset reads a preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}
	return ParsePreset(data)
}

// ParsePreset decodes a preset and checks that listings name known owners.
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}

	owners := make(map[string]bool, len(p.Users))
	for i, u := range p.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("preset user %d: username is required", i)
		}
		owners[u.Username] = true
	}
	for i, l := range p.Listings {
		if l.Title == "" {
			return nil, fmt.Errorf("preset listing %d: title is required", i)
		}
		if !owners[l.Owner] {
			return nil, fmt.Errorf("preset listing %q: unknown owner %q", l.Title, l.Owner)
		}
	}
	return &p, nil
}

// Apply creates the preset's users and listings, then its random filler.
func (p *Preset) Apply(ctx context.Context, store *repository.Store) (*Summary, error) {
	f := NewFactory(store, p.Seed)
	if p.Center != nil {
		// One degree of latitude is about 111 km.
		f.Around(*p.Center, p.SpreadKm/111)
	}

	summary := &Summary{}
	byName := make(map[string]*models.User, len(p.Users))
	created := make([]*models.User, 0, len(p.Users))
	for _, pu := range p.Users {
		pu := pu
		u, err := f.CreateUser(ctx, func(u *models.User) {
			u.Username = pu.Username
			u.Email = pu.Username + "@example.com"
			if pu.Email != "" {
				u.Email = pu.Email
			}
			if pu.Password != "" {
				u.Password = pu.Password
			}
			if pu.DisplayName != "" {
				u.DisplayName = pu.DisplayName
			}
			if pu.Location != "" {
				u.Location = pu.Location
			}
		})
		if err != nil {
			return summary, fmt.Errorf("create preset user %s: %w", pu.Username, err)
		}
		byName[u.Username] = u
		created = append(created, u)
		summary.Users++
	}

	for _, pl := range p.Listings {
		pl := pl
		owner := byName[pl.Owner]
		_, err := f.CreateListing(ctx, owner.ID, func(l *models.FoodListing) {
			l.Title = pl.Title
			if pl.Description != "" {
				l.Description = pl.Description
			}
			if pl.Category != "" {
				l.Category = pl.Category
			}
			l.IsFree = pl.IsFree
			l.Price = pl.Price
			if pl.Quantity > 0 {
				l.Quantity = pl.Quantity
			}
			if pl.ExpiresInHours > 0 {
				l.ExpiresAt = f.now().Add(time.Duration(pl.ExpiresInHours) * time.Hour).UTC()
			}
			if pl.Location != "" {
				l.Location = pl.Location
			}
			if pl.Lat != nil && pl.Lng != nil {
				l.Latitude, l.Longitude = pl.Lat, pl.Lng
			}
		})
		if err != nil {
			return summary, fmt.Errorf("create preset listing %s: %w", pl.Title, err)
		}
		summary.Listings++
	}

	random, err := f.Generate(ctx, p.Random.Users, p.Random.Listings, created)
	if random != nil {
		summary.Users += random.Users
		summary.Listings += random.Listings
		summary.Messages += random.Messages
		summary.Transactions += random.Transactions
		summary.Reviews += random.Reviews
	}
	return summary, err
}
