package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"axcouncil/internal/bootstrap/logging"
	domainpromo "axcouncil/internal/domain/promo"
	"axcouncil/internal/errs"
	promouc "axcouncil/internal/usecase/promo"
)

var promoCmd = &cobra.Command{
	Use:   "promo",
	Short: "Manage discount codes, referral codes, and vouchers",
}

var promoDiscountCreateCmd = &cobra.Command{
	Use:   "discount-create",
	Short: "Create a discount code",
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		code, _ := cmd.Flags().GetString("code")
		kind, _ := cmd.Flags().GetString("type")
		value, _ := cmd.Flags().GetInt64("value")
		minPurchase, _ := cmd.Flags().GetInt64("min-purchase")
		maxUses, _ := cmd.Flags().GetInt("max-uses")
		expiresAt, _ := cmd.Flags().GetString("expires-at")

		input := promouc.CreateDiscountInput{
			Code:  code,
			Type:  domainpromo.DiscountType(kind),
			Value: value,
		}
		if minPurchase > 0 {
			input.MinPurchase = &minPurchase
		}
		if maxUses > 0 {
			input.MaxUses = &maxUses
		}
		if expiresAt != "" {
			input.ExpiresAt = &expiresAt
		}

		discount, err := svcs.Promos.CreateDiscount(ctx, input)
		if err != nil {
			return errs.Wrap(err, "create discount")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "discount created: %s (%s %d)\n", discount.Code, discount.Type, discount.Value)
		return nil
	}),
}

var promoReferralCreateCmd = &cobra.Command{
	Use:   "referral-create",
	Short: "Create a referral code",
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		code, _ := cmd.Flags().GetString("code")
		owner, _ := cmd.Flags().GetString("owner")
		discountPercent, _ := cmd.Flags().GetInt64("discount-percent")
		commissionPercent, _ := cmd.Flags().GetInt64("commission-percent")
		maxUses, _ := cmd.Flags().GetInt("max-uses")
		expiresAt, _ := cmd.Flags().GetString("expires-at")

		input := promouc.CreateReferralInput{
			Code:              code,
			OwnerUserID:       owner,
			DiscountPercent:   discountPercent,
			CommissionPercent: commissionPercent,
		}
		if maxUses > 0 {
			input.MaxUses = &maxUses
		}
		if expiresAt != "" {
			input.ExpiresAt = &expiresAt
		}

		referral, err := svcs.Promos.CreateReferral(ctx, input)
		if err != nil {
			return errs.Wrap(err, "create referral")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "referral created: %s (owner %s)\n", referral.Code, referral.OwnerUserID)
		return nil
	}),
}

var promoVoucherCreateCmd = &cobra.Command{
	Use:   "voucher-create",
	Short: "Create a credit voucher",
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		code, _ := cmd.Flags().GetString("code")
		credits, _ := cmd.Flags().GetInt64("credits")
		maxUses, _ := cmd.Flags().GetInt("max-uses")
		expiresAt, _ := cmd.Flags().GetString("expires-at")

		input := promouc.CreateVoucherInput{
			Code:    code,
			Credits: credits,
		}
		if maxUses > 0 {
			input.MaxUses = &maxUses
		}
		if expiresAt != "" {
			input.ExpiresAt = &expiresAt
		}

		voucher, err := svcs.Promos.CreateVoucher(ctx, input)
		if err != nil {
			return errs.Wrap(err, "create voucher")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "voucher created: %s (%d credits)\n", voucher.Code, voucher.Credits)
		return nil
	}),
}

var promoVoucherRedeemCmd = &cobra.Command{
	Use:   "voucher-redeem <code>",
	Short: "Redeem a voucher for a user",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		userID, _ := cmd.Flags().GetString("user")
		if userID == "" {
			return errors.New("--user is required")
		}

		balance, err := svcs.Promos.RedeemVoucher(ctx, cmd.Flags().Args()[0], userID, "cli:"+userID)
		if err != nil {
			return errs.Wrap(err, "redeem voucher")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "voucher redeemed, %s now has %d credits\n", userID, balance)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(promoCmd)
	promoCmd.AddCommand(promoDiscountCreateCmd, promoReferralCreateCmd, promoVoucherCreateCmd, promoVoucherRedeemCmd)

	promoDiscountCreateCmd.Flags().String("code", "", "Code (omit to generate)")
	promoDiscountCreateCmd.Flags().String("type", "percentage", "Discount type (percentage|fixed)")
	promoDiscountCreateCmd.Flags().Int64("value", 0, "Percent off or fixed amount off")
	promoDiscountCreateCmd.Flags().Int64("min-purchase", 0, "Minimum purchase amount")
	promoDiscountCreateCmd.Flags().Int("max-uses", 0, "Maximum total uses (0 = unlimited)")
	promoDiscountCreateCmd.Flags().String("expires-at", "", "Expiry (RFC3339)")
	_ = promoDiscountCreateCmd.MarkFlagRequired("value")

	promoReferralCreateCmd.Flags().String("code", "", "Code (omit to generate)")
	promoReferralCreateCmd.Flags().String("owner", "", "Owning user id")
	promoReferralCreateCmd.Flags().Int64("discount-percent", 0, "Buyer discount percent")
	promoReferralCreateCmd.Flags().Int64("commission-percent", 0, "Owner commission percent")
	promoReferralCreateCmd.Flags().Int("max-uses", 0, "Maximum total uses (0 = unlimited)")
	promoReferralCreateCmd.Flags().String("expires-at", "", "Expiry (RFC3339)")
	_ = promoReferralCreateCmd.MarkFlagRequired("owner")

	promoVoucherCreateCmd.Flags().String("code", "", "Code (omit to generate)")
	promoVoucherCreateCmd.Flags().Int64("credits", 0, "Credits granted per redemption")
	promoVoucherCreateCmd.Flags().Int("max-uses", 0, "Maximum total redemptions (0 = unlimited)")
	promoVoucherCreateCmd.Flags().String("expires-at", "", "Expiry (RFC3339)")
	_ = promoVoucherCreateCmd.MarkFlagRequired("credits")

	promoVoucherRedeemCmd.Flags().String("user", "", "Redeeming user id")
	_ = promoVoucherRedeemCmd.MarkFlagRequired("user")
}
