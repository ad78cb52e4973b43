package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bionicotaku/lingo-services-journal/internal/capture"
	"github.com/bionicotaku/lingo-services-journal/internal/client"

	"github.com/spf13/cobra"
)

var (
	recordVideo    bool
	recordFacing   string
	recordDuration int
	recordYes      bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a new journal entry and upload it",
	Long: `Record a new journal entry with the simulated capture device and
upload it to the journal service.

Recording stops automatically when --duration is reached (capped at 180
seconds) or when you press Ctrl-C.

Examples:
  journal record
  journal record --duration 30
  journal record --video --facing back`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().BoolVar(&recordVideo, "video", false, "record video instead of audio")
	recordCmd.Flags().StringVar(&recordFacing, "facing", "front", "camera facing for video: front or back")
	recordCmd.Flags().IntVarP(&recordDuration, "duration", "d", 10, "recording length in seconds")
	recordCmd.Flags().BoolVarP(&recordYes, "yes", "y", false, "grant capture permission without prompting")
}

// stdinAuthorizer 把系统授权框映射为终端确认。--yes 时直接放行。
type stdinAuthorizer struct {
	assumeYes bool
}

func (a stdinAuthorizer) RequestAccess(_ context.Context, mode capture.Mode) (bool, error) {
	if a.assumeYes {
		return true, nil
	}
	what := "microphone"
	if mode == capture.ModeVideo {
		what = "camera and microphone"
	}
	fmt.Printf("journal needs %s access. Allow? [y/N]: ", what)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read input: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	mode := capture.ModeAudio
	if recordVideo {
		mode = capture.ModeVideo
	}
	facing := capture.Facing(recordFacing)
	if facing != capture.FacingFront && facing != capture.FacingBack {
		return fmt.Errorf("invalid facing %q: use front or back", recordFacing)
	}
	if recordDuration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if recordDuration > capture.MaxDurationSeconds {
		recordDuration = capture.MaxDurationSeconds
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gate := capture.NewGate(stdinAuthorizer{assumeYes: recordYes})
	grant, err := gate.Request(ctx, mode)
	if err != nil {
		if errors.Is(err, capture.ErrPermissionDenied) {
			return fmt.Errorf("capture permission denied")
		}
		return fmt.Errorf("request permission: %w", err)
	}

	sess := capture.NewSession(mode, capture.NewSimulatedDevice(),
		capture.WithMaxDuration(recordDuration),
		capture.WithFacing(facing),
	)
	defer sess.Close()

	if err := sess.Start(ctx, grant); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}
	fmt.Printf("Recording %s (up to %ds, Ctrl-C to stop early)...\n", mode, recordDuration)

	if err := waitForStop(ctx, sess); err != nil {
		return err
	}
	if verbose {
		fmt.Println()
	}
	if sess.State() != capture.StateStopped {
		if lastErr := sess.LastError(); lastErr != nil {
			return fmt.Errorf("recording failed: %w", lastErr)
		}
		return fmt.Errorf("recording did not produce a file")
	}

	file, _ := sess.File()
	fmt.Printf("Recorded %ds (%d bytes). Uploading...\n", sess.Elapsed(), file.SizeBytes)

	uploader := client.NewSessionUploader(apiClient)
	if err := sess.Upload(ctx, uploader); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	entry := uploader.Entry()
	fmt.Printf("Saved entry %s (%s, %ds)\n", entry.EntryID, entry.MediaType, entry.DurationSeconds)
	fmt.Println("Analysis is pending; run `journal show` later to see the result.")
	return nil
}

// waitForStop 轮询会话状态直至自动停止，Ctrl-C 触发手动停止。
func waitForStop(ctx context.Context, sess *capture.Session) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := sess.Stop(stopCtx)
			if err != nil && !errors.Is(err, capture.ErrInvalidTransition) {
				return fmt.Errorf("stop recording: %w", err)
			}
			// 与到时自动停止撞车时等待状态机收敛。
			for sess.State() == capture.StateRecording && stopCtx.Err() == nil {
				time.Sleep(50 * time.Millisecond)
			}
			return nil
		case <-ticker.C:
			state := sess.State()
			if state != capture.StateRecording {
				return nil
			}
			if verbose {
				fmt.Printf("\r%3ds  level %s", sess.Elapsed(), levelBar(sess.Level()))
			}
		}
	}
}

func levelBar(level float64) string {
	const width = 20
	filled := int(level * width)
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}
