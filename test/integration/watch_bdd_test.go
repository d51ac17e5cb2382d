//go:build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"atlaswatch/internal/chat"
	"atlaswatch/internal/command"
	"atlaswatch/internal/config"
	"atlaswatch/internal/gameapi"
	"atlaswatch/internal/watch"
)

// syncWriter makes the console buffer safe to read while the watch
// loop goroutine is writing to it.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

var _ = Describe("Watch Bot", func() {
	var (
		tmpDir     string
		configPath string
		out        *syncWriter
		console    *chat.Console
		cfg        *config.Store
		watcher    *watch.Watcher
		dispatcher *command.Dispatcher
		apiServer  *httptest.Server
		apiPlayers func(serverID int) string
		ctx        context.Context
		cancel     context.CancelFunc
	)

	exec := func(line string) {
		Expect(dispatcher.Execute(ctx, console.CommandChannelID(), line)).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "atlaswatch-integration-*")
		Expect(err).NotTo(HaveOccurred())
		configPath = filepath.Join(tmpDir, "atlaswatch.yaml")

		// Server A1 of world 1 has ID 1; each test shapes the player payload.
		apiPlayers = func(int) string { return `[]` }
		mux := http.NewServeMux()
		mux.HandleFunc("/clusters/", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"id": 1, "name": "A1", "player_count": 7}]`)
		})
		mux.HandleFunc("/servers/", func(w http.ResponseWriter, r *http.Request) {
			var id int
			fmt.Sscanf(r.URL.Path, "/servers/%d/players", &id)
			fmt.Fprint(w, apiPlayers(id))
		})
		apiServer = httptest.NewServer(mux)

		seed := fmt.Sprintf("cluster_url: %q\nplayer_url: %q\n",
			apiServer.URL+"/clusters/%d/servers",
			apiServer.URL+"/servers/%d/players")
		Expect(os.WriteFile(configPath, []byte(seed), 0644)).To(Succeed())

		cfg, err = config.Load(configPath)
		Expect(err).NotTo(HaveOccurred())

		logger := zap.NewNop()
		out = &syncWriter{}
		console = chat.NewConsole(out, logger)
		api := gameapi.New(cfg.ClusterURL(), cfg.PlayerURL())
		watcher = watch.NewWatcher(cfg, console, api, logger)
		dispatcher = command.NewDispatcher(console, logger, command.Table(cfg, console, watcher))

		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		watcher.Stop()
		cancel()
		apiServer.Close()
		os.RemoveAll(tmpDir)
	})

	Describe("watching a server", func() {
		Context("when a report channel exists and the watch starts", func() {
			It("posts a status line into the server channel", func() {
				exec("/add server a1")
				exec("/start")

				Eventually(out.String, 3*time.Second, 50*time.Millisecond).Should(
					SatisfyAll(
						ContainSubstring("[bot-cmd] watch started."),
						ContainSubstring("[A1] "),
						ContainSubstring("players:7  enemies:0"),
					))
			})
		})

		Context("when a watch-listed player is on the server", func() {
			It("posts the arrival alert on the first sighting", func() {
				apiPlayers = func(int) string { return `[{"name": "xDrEvilx"}]` }

				exec(`/add enemy DrEvil "Evil Co"`)
				exec("/add server A1")
				exec("/start")

				Eventually(out.String, 3*time.Second, 50*time.Millisecond).Should(
					ContainSubstring("@everyone watch-listed players have arrived: xDrEvilx(DrEvil)"))
				Expect(watcher.NoticedServers()).To(Equal([]string{"A1"}))
			})
		})

		Context("when the API is unreachable", func() {
			It("reports the fetch failure to the command channel and keeps running", func() {
				apiServer.Close()

				exec("/add server A1")
				exec("/start")

				Eventually(out.String, 3*time.Second, 50*time.Millisecond).Should(
					ContainSubstring("error: server info fetch failed. the API may be down. retrying."))
				Expect(watcher.Running()).To(BeTrue())
			})
		})
	})

	Describe("configuration persistence", func() {
		Context("when the enemy list changes", func() {
			It("survives a reload from disk", func() {
				exec(`/add enemy "Evil Player" "Bad Co"`)
				exec("/set world 3")

				reloaded, err := config.Load(configPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(reloaded.HasEnemy("Evil Player")).To(BeTrue())
				Expect(reloaded.WatchWorld()).To(Equal(3))
			})
		})

		Context("when a setting is below its floor", func() {
			It("clamps and persists the clamped value", func() {
				exec("/set interval 5")

				reloaded, err := config.Load(configPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(reloaded.WatchIntervalSeconds()).To(Equal(config.MinWatchInterval))
				Expect(out.String()).To(ContainSubstring("watch interval set to 30 seconds."))
			})
		})
	})

	Describe("command surface", func() {
		It("answers per-command help without executing", func() {
			exec("/start /?")

			Expect(out.String()).To(ContainSubstring("starts watching the servers."))
			Expect(watcher.Running()).To(BeFalse())
		})

		It("reports settings via /status", func() {
			exec("/add enemy X Y")
			exec("/status")

			Expect(out.String()).To(SatisfyAll(
				ContainSubstring("watch state: stopped"),
				ContainSubstring("watch world: 1 (NA PvE)"),
				ContainSubstring("enemy players: X(Y)"),
			))
		})

		It("lists all commands on an unknown token", func() {
			exec("/frobnicate")

			Expect(out.String()).To(SatisfyAll(
				ContainSubstring("unknown command."),
				ContainSubstring("`/?`"),
			))
		})
	})
})
