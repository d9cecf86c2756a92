package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"creator-payments/internal/fee"
	"creator-payments/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFeesCmd_JSON(t *testing.T) {
	out, err := execute(t, "fees", "10000", "--provider", "CARD_NETWORK", "--json")
	require.NoError(t, err)

	var b fee.Breakdown
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, int64(200), b.ProviderFee)
	assert.Equal(t, int64(980), b.PlatformCommission)
	assert.Equal(t, int64(8820), b.NetEarnings)
}

func TestFeesCmd_Table(t *testing.T) {
	out, err := execute(t, "fees", "10000", "-p", "upi_network", "-t", "partner")
	require.NoError(t, err)
	assert.Contains(t, out, "UPI_NETWORK, PARTNER")
	assert.Contains(t, out, "Gross:      100.00 INR")
}

func TestFeesCmd_Errors(t *testing.T) {
	_, err := execute(t, "fees", "ten")
	assert.Error(t, err)

	_, err = execute(t, "fees", "0")
	assert.Error(t, err)

	_, err = execute(t, "fees", "100", "--provider", "CRYPTO")
	assert.Error(t, err)
}

func TestFeesCmd_ConfigOverride(t *testing.T) {
	t.Setenv("FEES_COMMISSION_BASE", "gross")

	out, err := execute(t, "fees", "10000", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"platform_commission": 1000`)
}

func TestProvidersCmd(t *testing.T) {
	t.Setenv("ENABLED_PROVIDERS", "UPI_NETWORK,BANK_TRANSFER")

	out, err := execute(t, "providers")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "CARD_NETWORK")
	assert.True(t, strings.HasSuffix(lines[1], "false"))
	assert.Contains(t, lines[2], "UPI_NETWORK")
	assert.True(t, strings.HasSuffix(lines[2], "true"))
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")

	out, err := execute(t, "token", "creator-9", "--role", "creator")
	require.NoError(t, err)

	claims, err := middleware.ParseToken("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "creator-9", claims.Subject)
	assert.Equal(t, "creator", claims.Role)
}

func TestTokenCmd_NoSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := execute(t, "token", "creator-9")
	assert.Error(t, err)
}
