package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAdminKey(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"hash-admin-key", "let-me-in"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())

	line := strings.TrimSpace(out.String())
	require.True(t, strings.HasPrefix(line, "ADMIN_KEY_HASH="), line)
	hash := strings.TrimPrefix(line, "ADMIN_KEY_HASH=")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("let-me-in")))
}

func TestHashAdminKey_RequiresKey(t *testing.T) {
	rootCmd.SetArgs([]string{"hash-admin-key"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "sweep", "seed-plans", "hash-admin-key"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("env-file"))
}
