package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	flagConfig   string
	flagDryRun   bool
	flagDebug    bool
	flagHeadless bool
	flagJSON     bool
)

func main() {
	root := &cobra.Command{
		Use:           "freegames",
		Short:         "Automatically claim free promotional offers from the Epic Games Store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			fmt.Printf("[%s] freegames v%s\n", datetime(), version)
		},
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to configuration file")
	root.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "stop before submitting any purchase")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable detailed debug logging")
	root.PersistentFlags().BoolVar(&flagHeadless, "headless", true, "run the browser headless")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List current and upcoming free offers (no login required)",
		RunE:  runList,
	}
	listCmd.Flags().BoolVar(&flagJSON, "json", false, "output offers as JSON")

	root.AddCommand(
		listCmd,
		&cobra.Command{
			Use:   "login",
			Short: "Interactive login (opens a visible browser window)",
			RunE:  runLogin,
		},
		&cobra.Command{
			Use:   "claim",
			Short: "Claim all currently free offers",
			RunE:  runClaim,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show login state, claim history and current offers",
			RunE:  runStatus,
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func loadConfigFromFlags(cmd *cobra.Command) (*Config, error) {
	config, err := LoadConfig(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flagDryRun {
		config.DryRun = true
	}
	if flagDebug {
		config.Debug = true
	}
	if cmd.Root().PersistentFlags().Changed("headless") {
		config.Headless = flagHeadless
	}
	return config, nil
}

func runList(cmd *cobra.Command, args []string) error {
	config, err := loadConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Fetching free offers...")
	offers, err := NewCatalog().FetchFreeOffers(config.Locale, config.Country)
	if err != nil {
		return err
	}

	if flagJSON {
		data, err := json.MarshalIndent(offers, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println()
	fmt.Println("🎮 Current free offers:")
	fmt.Println(FormatOfferList(offers.Current))
	fmt.Println()
	fmt.Println("🔜 Upcoming free offers:")
	fmt.Println(FormatOfferList(offers.Upcoming))
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	config, err := loadConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	// Login always needs a visible window for the human.
	config.Headless = false

	session := NewSession(config)
	if err := session.Start(); err != nil {
		return err
	}
	defer session.Close()

	gate := NewSessionGate(config, session.Driver())
	user, err := gate.Login()
	if err != nil {
		return err
	}
	fmt.Printf("\n✅ Login successful! Session saved for: %s\n", user)
	fmt.Println("You can now run: freegames claim")
	return nil
}

func runClaim(cmd *cobra.Command, args []string) error {
	config, err := loadConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	notifier := NewNotifier(config.WebhookURL)

	// The catalog answer is informational: the live page decides what gets
	// claimed, so a catalog failure only loses the early exit.
	fmt.Println("Checking available free offers...")
	if offers, err := NewCatalog().FetchFreeOffers(config.Locale, config.Country); err != nil {
		fmt.Printf("⚠️ Failed to fetch the free offers list: %v\n", err)
		fmt.Println("Will detect free offers via the browser instead.")
	} else {
		titles := make([]string, 0, len(offers.Current))
		for _, o := range offers.Current {
			titles = append(titles, o.Title)
		}
		fmt.Printf("Found %d free offer(s): %s\n", len(offers.Current), joinOr(titles, "(none)"))
		if len(offers.Current) == 0 {
			notifier.Notify("No free offers available this week.", LevelInfo)
			return nil
		}
	}

	session := NewSession(config)
	if err := session.Start(); err != nil {
		return err
	}
	defer session.Close()
	driver := session.Driver()

	gate := NewSessionGate(config, driver)
	if !gate.IsAuthenticated() {
		fmt.Println("Not logged in.")
		if config.Email != "" && config.Password != "" {
			user, err := gate.Login()
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Printf("✅ Logged in as: %s\n", user)
		} else {
			notifier.Notify("Session expired. Please run: freegames login", LevelWarning)
			return fmt.Errorf("not logged in and no credentials configured")
		}
	}

	results, err := NewOrchestrator(config, driver).ClaimAll()
	if err != nil {
		return err
	}

	run := NewClaimRun(results)
	if err := AppendRun(config.HistoryPath(), run); err != nil {
		fmt.Printf("⚠️ Failed to record claim history: %v\n", err)
	}

	for _, r := range results {
		if r.Status() == StatusCaptchaBlocked {
			notifier.Notify(fmt.Sprintf("Challenge detected while claiming %q. Manual intervention needed: %s",
				r.Title(), r.Offer.URL), LevelWarning)
		}
	}
	notifier.NotifyRun(results)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	config, err := loadConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	fmt.Println("📊 freegames status")
	fmt.Println()

	profileDir := config.BrowserProfileDir()
	if _, err := os.Stat(profileDir); err == nil {
		fmt.Printf("Browser profile: ✅ exists (%s)\n", profileDir)

		session := NewSession(config)
		if err := session.Start(); err != nil {
			return err
		}
		defer session.Close()

		gate := NewSessionGate(config, session.Driver())
		if gate.IsAuthenticated() {
			user := gate.CurrentUser()
			if user == "" {
				user = "unknown"
			}
			fmt.Printf("Login status:    ✅ logged in as %q\n", user)
		} else {
			fmt.Println("Login status:    ❌ not logged in (run login to authenticate)")
		}
	} else {
		fmt.Printf("Browser profile: ❌ not found (%s)\n", profileDir)
		fmt.Println("Login status:    ❌ no session (run login first)")
	}

	history, err := LoadHistory(config.HistoryPath())
	if err != nil {
		fmt.Printf("\nClaim history:   unreadable: %v\n", err)
	} else if len(history.History) == 0 {
		fmt.Println("\nClaim history:   no records yet")
	} else {
		fmt.Printf("\nClaim history:   %d run(s) recorded\n", len(history.History))
		last := history.History[len(history.History)-1]
		fmt.Printf("Last run:        %s\n", last.Date)
		for _, r := range last.Results {
			fmt.Printf("  %s %s - %s\n", r.Status().Icon(), r.Title(), r.Status())
		}
	}

	fmt.Println()
	if offers, err := NewCatalog().FetchFreeOffers(config.Locale, config.Country); err != nil {
		fmt.Println("Free this week:  (failed to fetch)")
	} else {
		titles := make([]string, 0, len(offers.Current))
		for _, o := range offers.Current {
			titles = append(titles, o.Title)
		}
		fmt.Printf("Free this week:  %s\n", joinOr(titles, "(none)"))
	}
	return nil
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
