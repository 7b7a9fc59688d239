package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
	"github.com/mindmate/companion-api/internal/core/service"
	mongodb "github.com/mindmate/companion-api/internal/infrastructure/db/mongo"
	redisstore "github.com/mindmate/companion-api/internal/infrastructure/db/redis"
)

// operatorID is recorded as the admin on ledger entries written from the CLI.
const operatorID = "cli"

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Privileged ledger and account operations",
}

var usageDay string

var setBalanceCmd = &cobra.Command{
	Use:   "set-balance <user_id> <amount>",
	Short: "Overwrite a user's token balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		return withLedger(cmd, func(ledger ports.LedgerService) error {
			bal, err := ledger.SetBalance(cmd.Context(), operatorID, args[0], amount)
			if err != nil {
				return err
			}
			cmd.Printf("balance for %s is now %d\n", args[0], bal)
			return nil
		})
	},
}

var addBalanceCmd = &cobra.Command{
	Use:   "add-balance <user_id> <delta>",
	Short: "Add (or with a negative delta, remove) tokens",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("delta: %w", err)
		}
		return withLedger(cmd, func(ledger ports.LedgerService) error {
			bal, err := ledger.AddBalance(cmd.Context(), operatorID, args[0], delta)
			if err != nil {
				return err
			}
			cmd.Printf("balance for %s is now %d\n", args[0], bal)
			return nil
		})
	},
}

var resetUsageCmd = &cobra.Command{
	Use:   "reset-usage <user_id>",
	Short: "Zero a user's tracked usage for one day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLedger(cmd, func(ledger ports.LedgerService) error {
			u, err := ledger.ResetUsage(cmd.Context(), operatorID, args[0], usageDay)
			if err != nil {
				return err
			}
			cmd.Printf("usage for %s on %s reset to %ds\n", u.UserID, u.Day, u.SecondsUsed)
			return nil
		})
	},
}

var addUsageCmd = &cobra.Command{
	Use:   "add-usage <user_id> <minutes>",
	Short: "Add or remove whole minutes of tracked usage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("minutes: %w", err)
		}
		return withLedger(cmd, func(ledger ports.LedgerService) error {
			u, err := ledger.AddUsageMinutes(cmd.Context(), operatorID, args[0], usageDay, minutes)
			if err != nil {
				return err
			}
			cmd.Printf("usage for %s on %s is now %ds\n", u.UserID, u.Day, u.SecondsUsed)
			return nil
		})
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role <email> <user|reviewer|admin>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := args[1]
		switch role {
		case domain.RoleUser, domain.RoleReviewer, domain.RoleAdmin:
		default:
			return fmt.Errorf("unknown role %q", role)
		}

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close(cmd.Context())

		accounts := mongodb.NewAccountRepository(st.db)
		acc, err := accounts.FindByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(args[0])))
		if err != nil {
			return err
		}
		if err := accounts.UpdateRole(cmd.Context(), acc.ID, role); err != nil {
			return err
		}
		cmd.Printf("%s (%s) is now %s\n", acc.Email, acc.ID, role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(setBalanceCmd, addBalanceCmd, resetUsageCmd, addUsageCmd, setRoleCmd)

	for _, c := range []*cobra.Command{resetUsageCmd, addUsageCmd} {
		c.Flags().StringVar(&usageDay, "day", "", "day as YYYY-MM-DD (default today, UTC)")
	}
}

// withLedger opens the stores and runs fn against a ledger service whose
// cache invalidation reaches the running servers.
func withLedger(cmd *cobra.Command, fn func(ports.LedgerService) error) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStores(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close(cmd.Context())

	ledger := service.NewLedgerService(
		mongodb.NewLedgerRepository(st.client, st.db),
		redisstore.NewBalanceCache(st.redis),
		log,
	)
	return fn(ledger)
}
