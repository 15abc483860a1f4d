package commands

import (
	"context"
	"net"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/arcaluminis-opc/internal/opc"
)

var (
	sinkAddr  string
	sinkEvery int
)

var sinkCmd = &cobra.Command{
	Use:   "sink",
	Short: "listens for OPC frames and logs them, a stand-in for an LED controller",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", sinkAddr)
		if err != nil {
			return err
		}
		log.Info().Str("addr", ln.Addr().String()).Msg("OPC sink listening")

		var frames atomic.Int64
		s := &opc.Sink{
			Logger: log.Logger,
			Handler: func(remote net.Addr, p *opc.Packet) {
				n := frames.Add(1)
				if sinkEvery <= 0 || n%int64(sinkEvery) != 0 {
					log.Debug().Int64("frame", n).Stringer("packet", p).Msg("frame")
					return
				}
				ev := log.Info().Int64("frame", n).Stringer("packet", p)
				if len(p.Data) >= 3 {
					ev = ev.Hex("first_pixel", p.Data[:3])
				}
				ev.Msg("frame")
			},
		}
		return s.Serve(ctx, ln)
	},
}

func init() {
	sinkCmd.Flags().StringVar(&sinkAddr, "listen", ":7890", "address to accept OPC connections on")
	sinkCmd.Flags().IntVar(&sinkEvery, "every", 30, "log every Nth frame at info level")
}
