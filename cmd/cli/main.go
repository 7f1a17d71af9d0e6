package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "walletcore-cli",
		Short: "WalletCore operations CLI",
		Long:  `A command line interface for operating the WalletCore ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the WalletCore API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(feeConfigCmd())
	rootCmd.AddCommand(walletCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconciliation operations",
	}

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Recompute every wallet balance from its entry history",
		Run: func(cmd *cobra.Command, args []string) {
			runBalanceAudit()
		},
	}

	var (
		recoverFrom  string
		recoverTo    string
		recoverApply bool
	)
	recoverCmd := &cobra.Command{
		Use:   "recover-deposits",
		Short: "Scan the rail's transaction history for missed deposits",
		Run: func(cmd *cobra.Command, args []string) {
			runRecoverDeposits(recoverFrom, recoverTo, recoverApply)
		},
	}
	recoverCmd.Flags().StringVar(&recoverFrom, "from", "", "Window start (RFC3339)")
	recoverCmd.Flags().StringVar(&recoverTo, "to", "", "Window end (RFC3339)")
	recoverCmd.Flags().BoolVar(&recoverApply, "apply", false, "Apply found deposits instead of only reporting them")
	recoverCmd.MarkFlagRequired("from")
	recoverCmd.MarkFlagRequired("to")

	var (
		creditWallet    string
		creditAmount    string
		creditReference string
		creditNarration string
		creditOperator  string
		creditConfirm   bool
	)
	creditCmd := &cobra.Command{
		Use:   "manual-credit",
		Short: "Apply an operator-attributed credit to a wallet",
		Run: func(cmd *cobra.Command, args []string) {
			runManualCredit(creditWallet, creditAmount, creditReference, creditNarration, creditOperator, creditConfirm)
		},
	}
	creditCmd.Flags().StringVar(&creditWallet, "wallet", "", "Wallet ID to credit")
	creditCmd.Flags().StringVar(&creditAmount, "amount", "", "Amount to credit")
	creditCmd.Flags().StringVar(&creditReference, "reference", "", "External reference for dedup")
	creditCmd.Flags().StringVar(&creditNarration, "narration", "manual credit", "Entry description")
	creditCmd.Flags().StringVar(&creditOperator, "operator", "", "Operator identity for the audit trail")
	creditCmd.Flags().BoolVar(&creditConfirm, "confirm", false, "Confirm the credit; omitted runs are rejected")
	creditCmd.MarkFlagRequired("wallet")
	creditCmd.MarkFlagRequired("amount")
	creditCmd.MarkFlagRequired("reference")
	creditCmd.MarkFlagRequired("operator")

	cmd.AddCommand(auditCmd, recoverCmd, creditCmd)
	return cmd
}

func feeConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee-config",
		Short: "Fee configuration operations",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active fee configuration",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/fee-config/")
		},
	}

	cmd.AddCommand(showCmd)
	return cmd
}

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	var (
		userID        string
		currency      string
		accountNumber string
		bankCode      string
		bankName      string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wallet",
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/wallets", map[string]any{
				"user_id":        userID,
				"currency":       currency,
				"account_number": accountNumber,
				"bank_code":      bankCode,
				"bank_name":      bankName,
			}, http.StatusCreated)
		},
	}
	createCmd.Flags().StringVar(&userID, "user", "", "Owning user ID")
	createCmd.Flags().StringVar(&currency, "currency", "NGN", "Wallet currency")
	createCmd.Flags().StringVar(&accountNumber, "account", "", "NUBAN account number")
	createCmd.Flags().StringVar(&bankCode, "bank-code", "", "Bank code")
	createCmd.Flags().StringVar(&bankName, "bank-name", "", "Bank name")
	createCmd.MarkFlagRequired("user")
	createCmd.MarkFlagRequired("account")

	getCmd := &cobra.Command{
		Use:   "get <wallet-id>",
		Short: "Fetch a wallet",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/wallets/" + args[0])
		},
	}

	cmd.AddCommand(createCmd, getCmd)
	return cmd
}

func runBalanceAudit() {
	status, body := post("/api/v1/reconciliation/balance-audit", nil)

	switch status {
	case http.StatusOK:
		fmt.Println("Balance audit PASSED")
	case http.StatusConflict:
		fmt.Println("Balance audit FOUND MISMATCHES")
	default:
		fmt.Printf("Balance audit failed (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	printPretty(body)
	if status == http.StatusConflict {
		os.Exit(1)
	}
}

func runRecoverDeposits(from, to string, apply bool) {
	status, body := post("/api/v1/reconciliation/recover-deposits", map[string]any{
		"from":  from,
		"to":    to,
		"apply": apply,
	})
	if status != http.StatusOK {
		fmt.Printf("Recovery failed (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	if apply {
		fmt.Println("Recovery run (applied)")
	} else {
		fmt.Println("Recovery run (dry run)")
	}
	printPretty(body)
}

func runManualCredit(wallet, amount, reference, narration, operator string, confirm bool) {
	status, body := post("/api/v1/reconciliation/manual-credit", map[string]any{
		"wallet_id": wallet,
		"amount":    amount,
		"reference": reference,
		"narration": narration,
		"operator":  operator,
		"confirm":   confirm,
	})
	if status != http.StatusCreated {
		fmt.Printf("Manual credit failed (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	fmt.Println("Manual credit applied")
	printPretty(body)
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	printPretty(body)
}

func postJSON(path string, payload map[string]any, wantStatus int) {
	status, body := post(path, payload)
	if status != wantStatus {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}
	printPretty(body)
}

func post(path string, payload map[string]any) (int, []byte) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		reqBody = bytes.NewReader(data)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", reqBody)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func printPretty(body []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(buf.String())
}
