package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testCSV = `agency_short,request_type,cost,how_to_description,payment_form_url,estimated_monthly_volume,deadline_window,effort_hours,online_available,api_available,mcp_available,related_pages,date_extracted,source_url,agency_full,eligibility,location_applicability,document_requirements
CA DPH,Food Truck Operating Permit,$500-$1200,"Apply through the county health office, then schedule an inspection.",https://example.gov/pay,1200,30 days before operation,6,Yes,No,No,ca-dmv-title-transfer,2025-03-01,,California Department of Public Health,Mobile food vendors,Statewide (California),"Health permit; Commissary letter"
CA DMV,Title Transfer,$15,Submit form REG 227 with the signed title.,,45000,,1,Yes,Yes,No,ca-dph-food-truck-operating-permit,2025-04-15,,California Department of Motor Vehicles,Vehicle owners,Statewide (California),Signed title
`

// writeDataset writes testCSV (or content) into a fresh data directory.
func writeDataset(t *testing.T, content string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "permits.csv"), []byte(content), 0o644))
	return dir
}

// resetFlags restores every flag of cmd and its children to its default, so
// package-level flag variables do not leak between in-process runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI in-process with args.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}
