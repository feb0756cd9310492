package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/farmily/fhs/auth"
	"github.com/farmily/fhs/config"
	"github.com/farmily/fhs/services"
	"github.com/farmily/fhs/token"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func hashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash of a password",
		Long: `Print a bcrypt hash of a password, for seeding the users table.

The password is read from standard input when no argument is given, which
keeps it out of shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			hash, err := hashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt work factor")

	return cmd
}

func hashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	if len(password) > services.MaxPasswordBytes {
		return "", fmt.Errorf("password exceeds %d bytes", services.MaxPasswordBytes)
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return auth.NewBcryptVerifier(cost).Hash(password)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func issueTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "issue-token <subject>",
		Short: "Sign a token for a subject",
		Long: `Sign a token for a subject with JWT_SECRET.

The token only authenticates if the subject exists in the users table when
it is presented. The lifetime defaults to JWT_TTL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			authCfg, err := config.NewAuth()
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = authCfg.TokenTTL
			}

			signed, err := issueToken(authCfg.SigningKey(), args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default JWT_TTL)")

	return cmd
}

func issueToken(key []byte, subject string, ttl time.Duration) (string, error) {
	codec, err := token.NewCodec(key, token.WithTTL(ttl))
	if err != nil {
		return "", err
	}
	return codec.Issue(subject, ttl)
}
