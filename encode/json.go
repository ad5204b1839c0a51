// Package encode provides the server status/QA snapshot supplemented in
// SPEC_FULL.md: a small JSON-serializable struct plus a VFS-backed writer,
// grounded on go-gsf's encode/json.go WriteJson and its FileInfo/QualityInfo
// dump pattern.
package encode

import (
	"encoding/json"
	"fmt"
	"time"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// Status is the QA snapshot a broadcast.Server exposes: client count,
// frame production/eviction counters, the current scan center, and
// uptime. It supplements operability without introducing a metrics
// system, per SPEC_FULL.md's Supplemented features §3.
type Status struct {
	ClientCount   int       `json:"client_count"`
	FramesSent    int64     `json:"frames_sent"`
	FramesDropped int64     `json:"frames_dropped"`
	CenterX       float64   `json:"center_x"`
	CenterY       float64   `json:"center_y"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// JSONIndentDumps renders s as indented JSON text, mirroring go-gsf's
// JsonIndentDumps helper used for human-readable QualityInfo dumps.
func JSONIndentDumps(s Status) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteJSON writes data to fileURI using TileDB's VFS, so a status
// snapshot can be persisted to a local path or an object store
// identically. Grounded on go-gsf's WriteJson; unlike the teacher, config
// and VFS setup errors are returned rather than panicked, matching the
// rest of this module's error-handling convention.
func WriteJSON(fileURI, configURI string, data []byte) (int, error) {
	var config *tiledb.Config
	var err error
	if configURI == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return 0, fmt.Errorf("encode: loading tiledb config: %w", err)
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return 0, fmt.Errorf("encode: creating tiledb context: %w", err)
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return 0, fmt.Errorf("encode: creating tiledb vfs: %w", err)
	}
	defer vfs.Free()

	stream, err := vfs.Open(fileURI, tiledb.TILEDB_VFS_WRITE)
	if err != nil {
		return 0, fmt.Errorf("encode: opening %s for write: %w", fileURI, err)
	}
	defer stream.Close()

	written, err := stream.Write(data)
	if err != nil {
		return 0, fmt.Errorf("encode: writing %s: %w", fileURI, err)
	}
	return written, nil
}

// WriteStatus is a convenience wrapper combining JSONIndentDumps and
// WriteJSON for a Status snapshot.
func WriteStatus(fileURI, configURI string, s Status) (int, error) {
	data, err := JSONIndentDumps(s)
	if err != nil {
		return 0, fmt.Errorf("encode: marshaling status: %w", err)
	}
	return WriteJSON(fileURI, configURI, data)
}
