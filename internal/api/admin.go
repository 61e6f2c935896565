package api

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/dbscan/internal/version"
)

// AttachAdminRoutes mounts the tsweb debug pages on mux. When a run store is
// configured it also mounts a tailsql console and a database backup download.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	debug.KV("Version", version.String())
	debug.KV("Default algorithm", string(s.cfg.GetAlgorithm()))
	debug.KV("Request timeout", s.cfg.GetRequestTimeout().String())

	if s.store == nil {
		return nil
	}
	debug.KV("Run database", s.store.Path())

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+s.store.Path(), s.store.DB(), &tailsql.DBOptions{
		Label: "DBSCAN runs",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	debug.Handle("backup", "Create and download a backup of the run database now", http.HandlerFunc(s.handleBackup))
	return nil
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	dir, err := os.MkdirTemp("", "dbscan-backup-")
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup dir: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.log.Printf("Failed to remove backup dir: %v", err)
		}
	}()

	backupName := fmt.Sprintf("dbscan-runs-%d.db", time.Now().Unix())
	backupPath := filepath.Join(dir, backupName)
	if _, err := s.store.DB().Exec("VACUUM INTO ?", backupPath); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}

	backupFile, err := os.Open(backupPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
		return
	}
	defer backupFile.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", backupName))
	w.Header().Set("Content-Type", "application/gzip")

	gzipWriter := gzip.NewWriter(w)
	defer gzipWriter.Close()
	if _, err := io.Copy(gzipWriter, backupFile); err != nil {
		s.log.Printf("Failed to write backup: %v", err)
	}
}
