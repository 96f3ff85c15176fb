package cmd

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hemedy99/facegate/internal/auth"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd <username> <password>",
	Short: "Generate a credential line for the password file",
	Long: `Generate a username:salted_hash line for the credential file.
Append the output to the file configured by FACEGATE_CREDENTIALS; only the
first entry in the file is consulted at login.`,
	Args: cobra.ExactArgs(2),
	RunE: runPasswd,
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}

// saltAlphabet matches the character set the verifier expects at the front
// of a stored hash.
const saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomSalt() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to draw salt: %w", err)
	}
	for i, b := range buf {
		buf[i] = saltAlphabet[int(b)%len(saltAlphabet)]
	}
	return string(buf), nil
}

func runPasswd(cmd *cobra.Command, args []string) error {
	username, password := args[0], args[1]

	salt, err := randomSalt()
	if err != nil {
		return err
	}

	fmt.Printf("%s:%s\n", username, auth.HashPassword(password, salt))
	return nil
}
