package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/refgrade/internal/database"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/store"
	"gopkg.in/yaml.v3"
)

// fixture is the layout of the seed file.
type fixture struct {
	Leagues []struct {
		Name  string   `yaml:"name"`
		Teams []string `yaml:"teams"`
	} `yaml:"leagues"`
	Users []match.User `yaml:"users"`
}

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"TURSO_PRIMARY_URL": os.Getenv("TURSO_PRIMARY_URL"),
		"TURSO_AUTH_TOKEN":  os.Getenv("TURSO_AUTH_TOKEN"),
	}
	value, ok := os.LookupEnv("DB_NAME")
	if !ok {
		log.Fatalf("Error: Required environment variable DB_NAME is not set.")
	}
	config["DB_NAME"] = value
	return config
}

func main() {
	path := "seed.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	log.Info("Starting database seeder...", "file", path)
	cfg := loadConfig()

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open seed file: %s", err)
	}
	defer f.Close()
	fx, err := readFixture(f)
	if err != nil {
		log.Fatalf("Failed to read seed file: %s", err)
	}

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	created, err := seed(store.New(db), fx)
	if err != nil {
		log.Fatalf("Seeding failed: %s", err)
	}
	log.Info("Seeding complete", "created", created)
}

func readFixture(r io.Reader) (fixture, error) {
	var fx fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return fixture{}, err
	}
	return fx, nil
}

// seed inserts what is missing and leaves existing rows alone, so it can be
// run repeatedly. It returns the number of rows created.
func seed(s store.Store, fx fixture) (int, error) {
	created := 0
	for _, l := range fx.Leagues {
		league, err := s.FindLeagueByName(l.Name)
		if errors.Is(err, match.ErrNotFound) {
			league, err = s.CreateLeague(l.Name)
			created++
		}
		if err != nil {
			return created, fmt.Errorf("league %q: %w", l.Name, err)
		}
		for _, name := range l.Teams {
			_, err := s.FindTeamByName(league.ID, name)
			if errors.Is(err, match.ErrNotFound) {
				_, err = s.CreateTeam(league.ID, name)
				created++
			}
			if err != nil {
				return created, fmt.Errorf("team %q: %w", name, err)
			}
		}
	}
	for _, u := range fx.Users {
		if _, err := match.ParseRole(string(u.Role)); err != nil {
			return created, fmt.Errorf("user %q: %w", u.FullName(), err)
		}
		existing, err := s.FindUserByName(u.FullName(), u.Role)
		if errors.Is(err, match.ErrNotFound) {
			existing, err = s.CreateUser(u)
			created++
		}
		if err != nil {
			return created, fmt.Errorf("user %q: %w", u.FullName(), err)
		}
		log.Info("User ready", "id", existing.ID, "name", existing.FullName(), "role", existing.Role)
	}
	return created, nil
}
