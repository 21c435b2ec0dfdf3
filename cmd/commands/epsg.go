package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/conf/v2"
	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/projection"
)

// Epsg resolves coordinate system definitions from the command line, using
// the same lookup path the viewer bootstrap uses.
func Epsg() error {
	cfg := struct {
		RegistryURL string `conf:"default:https://epsg.io"`
		Locale      string `conf:"default:en"`
		Args        conf.Args
	}{}
	help, err := conf.Parse("", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Args) == 0 {
		return errors.New("usage: epsg <code> [<code> ...]")
	}

	log, err := createLogger(zap.WarnLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	resolver := projection.NewResolver(log, cfg.RegistryURL, projection.NewTable())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, code := range cfg.Args {
		def, err := resolver.Resolve(ctx, code, cfg.Locale, "")
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", def.Code, def.Proj4)
	}
	return nil
}
