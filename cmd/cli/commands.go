package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	server "github.com/mauv0809/refgrade/internal/http"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/spf13/cobra"
)

var (
	leagueID     string
	mine         bool
	sender       string
	messageID    string
	inboundToken string
	secret       string
	userID       string
	role         string
	ttl          time.Duration
)

func init() {
	matchesCmd.Flags().StringVar(&leagueID, "league", "", "Only matches of this league")
	matchesCmd.Flags().BoolVar(&mine, "mine", false, "Only matches officiated by the token's user")

	importCmd.Flags().StringVar(&leagueID, "league", "", "League the schedule belongs to")
	_ = importCmd.MarkFlagRequired("league")

	inboundCmd.Flags().StringVar(&sender, "sender", "", "Phone number the message came from")
	inboundCmd.Flags().StringVar(&messageID, "id", "", "Gateway message id (random when empty)")
	inboundCmd.Flags().StringVar(&inboundToken, "inbound-token", os.Getenv("SMS_INBOUND_TOKEN"), "Shared secret of the inbound webhook")
	_ = inboundCmd.MarkFlagRequired("sender")

	tokenCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret of the server")
	tokenCmd.Flags().StringVar(&userID, "user", "", "User id")
	tokenCmd.Flags().StringVar(&role, "role", string(match.RoleAdmin), "Role of the user")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(inboundCmd)
	rootCmd.AddCommand(tokenCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil, "")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil, "")
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if leagueID != "" {
			q.Set("league", leagueID)
		}
		if mine {
			q.Set("mine", "true")
		}
		return performRequest(http.MethodGet, "/api/matches?"+q.Encode(), nil, "")
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a CSV or XLSX schedule into a league",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if err := mw.WriteField("league", leagueID); err != nil {
			return err
		}
		part, err := mw.CreateFormFile("file", filepath.Base(args[0]))
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f); err != nil {
			return err
		}
		if err := mw.Close(); err != nil {
			return err
		}
		return performRequest(http.MethodPost, "/api/matches/import", &buf, mw.FormDataContentType())
	},
}

var inboundCmd = &cobra.Command{
	Use:   "inbound <key#grade/scale>",
	Short: "Replay an observer's grade message against the inbound webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := messageID
		if id == "" {
			id = fmt.Sprintf("cli-%d", time.Now().UnixNano())
		}
		form := url.Values{"id": {id}, "msg": {args[0]}, "sender": {sender}}
		endpoint := "/sms/inbound"
		if inboundToken != "" {
			endpoint += "?token=" + url.QueryEscape(inboundToken)
		}
		return performRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if secret == "" {
			return fmt.Errorf("--secret or JWT_SECRET is required")
		}
		r, err := match.ParseRole(role)
		if err != nil {
			return err
		}
		signed, err := server.NewAuthenticator(secret).Issue(match.User{ID: userID, Role: r}, ttl)
		if err != nil {
			return err
		}
		fmt.Println(signed)
		return nil
	},
}

func performRequest(method, endpoint string, body io.Reader, contentType string) error {
	target := host + endpoint
	if dryRun {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		target += sep + "dry_run=true"
	}
	fmt.Printf("Making request to %s\n", target)

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
