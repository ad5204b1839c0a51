package lpx

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"strconv"

	stgpsr "github.com/yuin/stagparser"
)

// DefaultPort is the TCP port the broadcast server binds when Config.Port
// is left at zero, per spec.md section 6.
const DefaultPort = 8080

// Config is the semantic configuration surface described in spec.md
// section 6. Each field may be overridden by an environment variable
// named in its "env" struct tag; LoadConfigEnv applies those overrides on
// top of the zero-value defaults the caller supplies, the same way the
// teacher's schema.go walks a struct's tags with reflect + stagparser to
// drive TileDB schema construction.
type Config struct {
	ScanTablesPath string `env:"name=LPX_SCAN_TABLES"`
	VideoFilePath  string `env:"name=LPX_VIDEO"`
	Port           uint16 `env:"name=LPX_PORT"`
	OutputWidth    int    `env:"name=LPX_WIDTH"`
	OutputHeight   int    `env:"name=LPX_HEIGHT"`
	TargetFPS      float64 `env:"name=LPX_FPS"`
	LoopVideo      bool    `env:"name=LPX_LOOP"`

	// TileDBConfigURI, when non-empty, points at a TileDB config file with
	// object-store credentials, in the form taken by the configURI argument
	// of wire.SaveFrame/wire.LoadFrame and search.FindScanTables/FindVideos.
	// Empty means "use TileDB's generic config". The server itself does not
	// read this field.
	TileDBConfigURI string `env:"name=LPX_TILEDB_CONFIG"`

	// Logger receives server lifecycle events. Defaults to log.Default()
	// in LoadConfigEnv; tests typically substitute a logger writing to a
	// buffer or io.Discard.
	Logger *log.Logger
}

// LoadConfigEnv starts from base, applies any environment-variable
// overrides declared via "env" struct tags, fills in the port default,
// and validates the result.
func LoadConfigEnv(base Config) (Config, error) {
	cfg := base
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	defs, err := stgpsr.ParseStruct(&cfg, "env")
	if err != nil {
		return Config{}, fmt.Errorf("%w: parsing env tags: %v", ErrConfig, err)
	}

	values := reflect.ValueOf(&cfg).Elem()
	types := values.Type()
	for i := 0; i < types.NumField(); i++ {
		field := types.Field(i)
		fieldDefs := defs[field.Name]
		if len(fieldDefs) == 0 {
			continue
		}
		envName, ok := fieldDefs[0].Attribute("name")
		if !ok {
			continue
		}
		raw, present := os.LookupEnv(envName.(string))
		if !present {
			continue
		}
		if err := setFieldFromString(values.Field(i), raw); err != nil {
			return Config{}, fmt.Errorf("%w: env %s: %v", ErrConfig, envName, err)
		}
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setFieldFromString(v reflect.Value, raw string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint16:
		n, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", v.Kind())
	}
	return nil
}

// Validate checks the invariants spec.md section 7's ConfigError
// describes for paths and dimensions: both paths must be set and both
// output dimensions positive. The port is not checked here;
// LoadConfigEnv replaces a zero port with DefaultPort.
func (c Config) Validate() error {
	if c.ScanTablesPath == "" {
		return fmt.Errorf("%w: scan_tables_path is required", ErrConfig)
	}
	if c.VideoFilePath == "" {
		return fmt.Errorf("%w: video_file_path is required", ErrConfig)
	}
	if c.OutputWidth <= 0 || c.OutputHeight <= 0 {
		return fmt.Errorf("%w: output dimensions must be positive, got %dx%d", ErrConfig, c.OutputWidth, c.OutputHeight)
	}
	return nil
}
