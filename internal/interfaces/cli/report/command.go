package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/orris-inc/trafficstat/internal/application/traffic/usecases"
	"github.com/orris-inc/trafficstat/internal/interfaces/cli/bootstrap"
	"github.com/orris-inc/trafficstat/internal/shared/utils"
)

var (
	opts       bootstrap.Options
	serverID   uint
	serverType string
	rate       float64
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Ingest a node traffic push read from stdin",
		Long: `Read a node push of the form {"<user id>": [upload, download]} from stdin.
Billed bytes (raw bytes times --rate) are added to the live counters; raw
bytes go to server statistics and the traffic log.`,
		Example: `  echo '{"1":[1024,4096]}' | trafficstat report --server-id 3 --server-type vmess --rate 1.5`,
		RunE:    run,
	}

	opts.Bind(cmd)
	cmd.Flags().UintVar(&serverID, "server-id", 0, "Reporting server id")
	cmd.Flags().StringVar(&serverType, "server-type", "", "Reporting server protocol (vmess, trojan, shadowsocks, ...)")
	cmd.Flags().Float64Var(&rate, "rate", 1, "Server traffic rate multiplier")
	_ = cmd.MarkFlagRequired("server-id")
	_ = cmd.MarkFlagRequired("server-type")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	traffic, err := parseTraffic(cmd.InOrStdin())
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cmd.Context(), &opts)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.ReportUseCase().Execute(cmd.Context(), usecases.ReportTrafficCommand{
		ServerID:   serverID,
		ServerType: serverType,
		Rate:       rate,
		Traffic:    traffic,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reported %d users: billed upload %s, billed download %s\n",
		result.Users, utils.FormatBytes(result.Upload), utils.FormatBytes(result.Download))
	return nil
}

// parseTraffic decodes the push body. Keys are decimal user ids.
func parseTraffic(r io.Reader) (map[uint][2]uint64, error) {
	var raw map[string][2]uint64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid traffic payload: %w", err)
	}

	traffic := make(map[uint][2]uint64, len(raw))
	for key, ud := range raw {
		userID, err := strconv.ParseUint(key, 10, strconv.IntSize)
		if err != nil || userID == 0 {
			return nil, fmt.Errorf("invalid user id %q in traffic payload", key)
		}
		traffic[uint(userID)] = ud
	}
	return traffic, nil
}
