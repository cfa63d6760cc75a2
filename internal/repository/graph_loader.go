package repository

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadGraphs returns the graphs to serve. When dir is set every export in it is parsed and
// written to the store, replacing older copies; otherwise every graph in the store is loaded.
func LoadGraphs(ctx context.Context, log *zap.SugaredLogger, dir string, store *GraphBadgerStore) ([]*SolvedGraph, error) {
	if dir != "" {
		paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return nil, err
		}
		graphs := make([]*SolvedGraph, len(paths))
		g, _ := errgroup.WithContext(ctx)
		for i, path := range paths {
			i, path := i, path
			g.Go(func() error {
				graph, err := LoadGraphFile(path)
				if err != nil {
					return err
				}
				graphs[i] = graph
				log.Infof("graph %s loaded from %s: %d positions", graph.Slug(), path, graph.NumPositions())
				return nil
			})
		}
		if err = g.Wait(); err != nil {
			return nil, err
		}
		if store != nil {
			for _, graph := range graphs {
				if err = store.Save(graph); err != nil {
					return nil, err
				}
			}
		}
		return graphs, nil
	}

	if store == nil {
		return nil, nil
	}
	slugs, err := store.Slugs()
	if err != nil {
		return nil, err
	}
	graphs := make([]*SolvedGraph, len(slugs))
	g, _ := errgroup.WithContext(ctx)
	for i, slug := range slugs {
		i, slug := i, slug
		g.Go(func() error {
			graph, err := store.Load(slug)
			if err != nil {
				return err
			}
			graphs[i] = graph
			log.Infof("graph %s loaded from badger: %d positions", slug, graph.NumPositions())
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return graphs, nil
}
