// Command irmaseal-cli seals and opens IRMAseal envelopes from the
// command line, wired with cobra the way the teacher's
// cmd/s3-encryption-proxy/main.go roots its subcommands.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/privacybydesign/irmaseal-go/internal/config"
	"github.com/privacybydesign/irmaseal-go/internal/logging"
	"github.com/privacybydesign/irmaseal-go/pkg/irmaseal"
	"github.com/privacybydesign/irmaseal-go/pkg/kem"
)

var (
	cfgFile string

	sealPublicKeyB64 string
	sealAttrType     string
	sealAttrValue    string
	sealTimestamp    int64

	unsealSecretKeyB64 string

	rootCmd = &cobra.Command{
		Use:   "irmaseal-cli",
		Short: "Seal and open IRMAseal streaming envelopes",
		Long: `irmaseal-cli seals arbitrary byte streams into IRMAseal envelopes
bound to an identity, and opens them back given the matching
UserSecretKey. It uses the ECDH stand-in KEM shipped in pkg/kem; see
DESIGN.md for why this is a test/demo double rather than a real
identity-based scheme.`,
	}

	sealCmd = &cobra.Command{
		Use:   "seal",
		Short: "Seal stdin to stdout for a given identity",
		RunE:  runSeal,
	}

	unsealCmd = &cobra.Command{
		Use:   "unseal",
		Short: "Open an IRMAseal envelope from stdin, writing plaintext to stdout",
		RunE:  runUnseal,
	}
)

func init() {
	cobra.OnInitialize(func() { config.InitConfig(cfgFile) })
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file (YAML format)")

	sealCmd.Flags().StringVar(&sealPublicKeyB64, "public-key", "", "base64-encoded recipient master public key (required)")
	sealCmd.Flags().StringVar(&sealAttrType, "attribute-type", "", "identity attribute type, e.g. pbdf.pbdf.email.email (required)")
	sealCmd.Flags().StringVar(&sealAttrValue, "attribute-value", "", "identity attribute value")
	sealCmd.Flags().Int64Var(&sealTimestamp, "timestamp", 0, "identity timestamp (unix seconds)")
	_ = sealCmd.MarkFlagRequired("public-key")
	_ = sealCmd.MarkFlagRequired("attribute-type")

	unsealCmd.Flags().StringVar(&unsealSecretKeyB64, "secret-key", "", "base64-encoded user secret key (required)")
	_ = unsealCmd.MarkFlagRequired("secret-key")

	rootCmd.AddCommand(sealCmd, unsealCmd)
}

func runSeal(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	pk, err := base64.StdEncoding.DecodeString(sealPublicKeyB64)
	if err != nil {
		return fmt.Errorf("invalid --public-key: %w", err)
	}

	var attrValue *string
	if sealAttrValue != "" {
		attrValue = &sealAttrValue
	}
	identity := &irmaseal.Identity{
		Timestamp:      uint64(sealTimestamp),
		AttributeType:  sealAttrType,
		AttributeValue: attrValue,
	}

	scheme := kem.NewECDHScheme()
	sealer, err := irmaseal.NewSealerWithCapacity(identity, kem.PublicKey(pk), scheme, rand.Reader, cfg.StreamBufferSize)
	if err != nil {
		return fmt.Errorf("failed to initialize sealer: %w", err)
	}

	if err := sealer.Seal(context.Background(), os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("seal failed: %w", err)
	}
	logging.For("irmaseal-cli").Info("sealed stream successfully")
	return nil
}

func runUnseal(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	usk, err := base64.StdEncoding.DecodeString(unsealSecretKeyB64)
	if err != nil {
		return fmt.Errorf("invalid --secret-key: %w", err)
	}

	scheme := kem.NewECDHScheme()
	identity, opener, err := irmaseal.NewOpenerWithCapacity(os.Stdin, scheme, cfg.StreamBufferSize)
	if err != nil {
		return fmt.Errorf("failed to parse envelope header: %w", err)
	}
	logging.For("irmaseal-cli").WithField("attribute_type", identity.AttributeType).Info("opened envelope header")

	valid, err := opener.Unseal(context.Background(), kem.UserSecretKey(usk), os.Stdout)
	if err != nil {
		return fmt.Errorf("unseal failed: %w", err)
	}
	if !valid {
		logrus.Error("MAC verification failed: discard the output written above, it is not authenticated")
		os.Exit(1)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
