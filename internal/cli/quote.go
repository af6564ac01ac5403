package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/setlabs/serpd/internal/config"
	"github.com/setlabs/serpd/internal/core/serp"
)

// quoteCmd runs the pure quote engine offline against the configured
// policy constants, without touching any ledger state.
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price serp operations offline",
}

var (
	quoteSupply uint64
	quotePrice  uint64
)

var quoteSerpupCmd = &cobra.Command{
	Use:   "serpup <expand_by>",
	Short: "Price a supply expansion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}
		p := cfg.Market.Params()

		var expandBy uint64
		if _, err := fmt.Sscanf(args[0], "%d", &expandBy); err != nil {
			return fmt.Errorf("invalid expand_by %q: %w", args[0], err)
		}

		q, err := serp.QuoteSerpup(quoteSupply, expandBy, p.BaseUnit, p.SerpQuoteMultiple, quotePrice, p.Policy)
		if err != nil {
			return err
		}
		fmt.Printf("pay_by_quoted: %d\nserp_quoted_price: %d\n", q.PayByQuoted, q.SerpQuotedPrice)
		return nil
	},
}

var quoteSerpdownCmd = &cobra.Command{
	Use:   "serpdown <contract_by>",
	Short: "Price a supply contraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}
		p := cfg.Market.Params()

		var contractBy uint64
		if _, err := fmt.Sscanf(args[0], "%d", &contractBy); err != nil {
			return fmt.Errorf("invalid contract_by %q: %w", args[0], err)
		}

		q, err := serp.QuoteSerpdown(quoteSupply, contractBy, p.BaseUnit, p.SerpQuoteMultiple, quotePrice)
		if err != nil {
			return err
		}
		fmt.Printf("pay_by_quoted: %d\nserp_quoted_price: %d\n", q.PayByQuoted, q.SerpQuotedPrice)
		return nil
	},
}

func init() {
	quoteCmd.PersistentFlags().Uint64Var(&quoteSupply, "supply", 0, "current total issuance of the settcurrency")
	quoteCmd.PersistentFlags().Uint64Var(&quotePrice, "quote-price", 0, "externally quoted native-asset price")

	quoteCmd.AddCommand(quoteSerpupCmd)
	quoteCmd.AddCommand(quoteSerpdownCmd)
	rootCmd.AddCommand(quoteCmd)
}
