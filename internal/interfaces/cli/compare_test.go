package cli

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/pkg/errors"
)

const clientContract = `1. Payment Terms
The Client shall pay all undisputed invoices within thirty (30) days of receipt of a correct invoice.

2. Confidentiality
Each party shall keep the other party's Confidential Information secret and use it solely for the purposes of this Agreement.

3. Limitation of Liability
Neither party's aggregate liability under this Agreement shall exceed the fees paid in the twelve (12) months preceding the claim.
`

const vendorContract = `1. Payment Terms
The Client shall pay all undisputed invoices within thirty (30) days of receipt of a correct invoice.

2. Confidentiality
The Vendor will protect Confidential Information using no less than reasonable care and disclose it only to employees with a need to know.
`

func writeContract(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCompareCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	clientPath := writeContract(t, dir, "client.txt", clientContract)
	vendorPath := writeContract(t, dir, "vendor.txt", vendorContract)

	out, _, err := runCLI(t, "compare", clientPath, vendorPath, "--output", "json")
	require.NoError(t, err)

	var result struct {
		ClientFile string `json:"client_file"`
		VendorFile string `json:"vendor_file"`
		Results    []struct {
			Title  string   `json:"title"`
			Status string   `json:"status"`
			Risk   string   `json:"risk"`
			Score  *float64 `json:"score"`
		} `json:"results"`
		Report struct {
			RunID   string `json:"run_id"`
			Overall struct {
				Aligned int `json:"aligned"`
				Missing int `json:"missing"`
			} `json:"overall"`
			Categories []struct {
				Category string `json:"category"`
			} `json:"categories"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, clientPath, result.ClientFile)
	assert.Equal(t, vendorPath, result.VendorFile)
	require.Len(t, result.Results, 3)

	payment := result.Results[0]
	assert.Equal(t, "Payment Terms", payment.Title)
	assert.Equal(t, "Aligned", payment.Status)
	assert.Equal(t, "low", payment.Risk)
	require.NotNil(t, payment.Score)
	assert.InDelta(t, 1.0, *payment.Score, 1e-9)

	liability := result.Results[2]
	assert.Equal(t, "Limitation of Liability", liability.Title)
	assert.Equal(t, "Missing", liability.Status)
	assert.Equal(t, "high", liability.Risk)
	assert.Nil(t, liability.Score)

	assert.Equal(t, "local", result.Report.RunID)
	assert.GreaterOrEqual(t, result.Report.Overall.Aligned, 1)
	assert.Equal(t, 1, result.Report.Overall.Missing)
	assert.NotEmpty(t, result.Report.Categories)
}

func TestCompareCommand_TextOutput(t *testing.T) {
	dir := t.TempDir()
	clientPath := writeContract(t, dir, "client.txt", clientContract)
	vendorPath := writeContract(t, dir, "vendor.txt", vendorContract)

	out, _, err := runCLI(t, "compare", clientPath, vendorPath)
	require.NoError(t, err)

	assert.Contains(t, out, "CLAUSE")
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "Payment Terms")
	assert.Contains(t, out, "Missing")
	assert.Contains(t, out, "Overall:")
}

func TestCompareCommand_TableOutput(t *testing.T) {
	dir := t.TempDir()
	clientPath := writeContract(t, dir, "client.txt", clientContract)
	vendorPath := writeContract(t, dir, "vendor.txt", vendorContract)

	out, _, err := runCLI(t, "compare", clientPath, vendorPath, "--output", "table")
	require.NoError(t, err)

	assert.Contains(t, out, "CLAUSE")
	assert.Contains(t, out, "Payment Terms")
	assert.NotContains(t, out, "Overall:")
}

func TestCompareCommand_MissingFile(t *testing.T) {
	dir := t.TempDir()
	vendorPath := writeContract(t, dir, "vendor.txt", vendorContract)

	_, _, err := runCLI(t, "compare", filepath.Join(dir, "absent.txt"), vendorPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestCompareCommand_BinaryFile(t *testing.T) {
	dir := t.TempDir()
	binaryPath := filepath.Join(dir, "scan.bin")
	require.NoError(t, os.WriteFile(binaryPath, []byte{0x00, 0x01, 0x02}, 0o600))
	vendorPath := writeContract(t, dir, "vendor.txt", vendorContract)

	_, _, err := runCLI(t, "compare", binaryPath, vendorPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract text")
}

func TestCompareCommand_NoHeadings(t *testing.T) {
	dir := t.TempDir()
	clientPath := writeContract(t, dir, "client.txt",
		"This agreement is made between the parties without any numbered sections at all.\n")
	vendorPath := writeContract(t, dir, "vendor.txt", vendorContract)

	_, _, err := runCLI(t, "compare", clientPath, vendorPath)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNoSectionsFound))
}

func TestCompareCommand_RequiresTwoFiles(t *testing.T) {
	_, _, err := runCLI(t, "compare", "only-one.txt")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short stays intact", "short", 10, "short"},
		{"exactly max stays intact", "abcdefghij", 10, "abcdefghij"},
		{"long is cut with ellipsis", "abcdefghijk", 10, "abcdefg..."},
		{"multibyte runes are not split", "ααααααααααα", 10, "ααααααα..."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, truncate(tc.in, tc.max))
		})
	}
}
