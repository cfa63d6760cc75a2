package repository

import (
	"bytes"
	"encoding/gob"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
)

// Keys:
//
//	graph/<slug>/meta                              current generation
//	graph/<slug>/pending                           generation of an unfinished Save
//	graphdata/<slug>/<gen>/node/<position key>
//	graphdata/<slug>/<gen>/terminal/<result><position key>
const (
	graphPrefix     = "graph/"
	graphDataPrefix = "graphdata/"
)

type graphMetaRecord struct {
	Generation string
	Root       []byte
	Moves      []tsumego.Coordinate
	Nodes      int
	Terminals  int
}

type edgeRecord struct {
	Token  int
	Result int
	Child  []byte
}

type nodeRecord struct {
	Solved  bool
	Plain   tsumego.Bound
	Forcing tsumego.Bound
	Edges   []edgeRecord
}

// GraphBadgerStore persists solved graphs so the server does not parse exports on every start.
// Every Save writes a new generation and switches the meta record to it in one transaction,
// so readers see either the old graph or the new one.
type GraphBadgerStore struct {
	db *badger.DB
}

func NewGraphBadgerStore(db *badger.DB) *GraphBadgerStore {
	return &GraphBadgerStore{db: db}
}

func metaKey(slug string) []byte {
	return []byte(graphPrefix + slug + "/meta")
}

func pendingKey(slug string) []byte {
	return []byte(graphPrefix + slug + "/pending")
}

func generationPrefix(slug, generation string) string {
	return graphDataPrefix + slug + "/" + generation + "/"
}

func encodeRecord(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// readString returns "" when key is absent.
func (s *GraphBadgerStore) readString(key []byte) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	return value, err
}

func (s *GraphBadgerStore) readMeta(txn *badger.Txn, slug string) (graphMetaRecord, error) {
	var meta graphMetaRecord
	item, err := txn.Get(metaKey(slug))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return meta, fmt.Errorf("%w: %s", errors.ErrCollectionNotFound, slug)
		}
		return meta, err
	}
	err = item.Value(func(val []byte) error { return decodeRecord(val, &meta) })
	return meta, err
}

// Save stores g as a new generation and replaces any stored graph with the same slug.
// A Save that fails midway leaves the previous graph in place.
func (s *GraphBadgerStore) Save(g *SolvedGraph) error {
	// Leftovers of an interrupted Save are never referenced by meta.
	stale, err := s.readString(pendingKey(g.slug))
	if err != nil {
		return err
	}
	if stale != "" {
		if err = s.db.DropPrefix([]byte(generationPrefix(g.slug, stale))); err != nil {
			return fmt.Errorf("drop unfinished graph %s: %w", g.slug, err)
		}
	}

	generation := uuid.New().String()
	if err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(pendingKey(g.slug), []byte(generation))
	}); err != nil {
		return err
	}
	if err = s.writeGeneration(g, generationPrefix(g.slug, generation)); err != nil {
		return fmt.Errorf("write graph %s: %w", g.slug, err)
	}

	meta, err := encodeRecord(graphMetaRecord{
		Generation: generation,
		Root:       g.root.Key(),
		Moves:      g.moves,
		Nodes:      len(g.nodes),
		Terminals:  len(g.terminals),
	})
	if err != nil {
		return err
	}
	var previous string
	err = s.db.Update(func(txn *badger.Txn) error {
		old, err := s.readMeta(txn, g.slug)
		switch {
		case err == nil:
			previous = old.Generation
		case !stderrors.Is(err, errors.ErrCollectionNotFound):
			return err
		}
		if err = txn.Set(metaKey(g.slug), meta); err != nil {
			return err
		}
		return txn.Delete(pendingKey(g.slug))
	})
	if err != nil {
		return fmt.Errorf("switch graph %s: %w", g.slug, err)
	}

	if previous != "" && previous != generation {
		if err = s.db.DropPrefix([]byte(generationPrefix(g.slug, previous))); err != nil {
			return fmt.Errorf("drop previous graph %s: %w", g.slug, err)
		}
	}
	return nil
}

func (s *GraphBadgerStore) writeGeneration(g *SolvedGraph, prefix string) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for position, node := range g.nodes {
		rec := nodeRecord{
			Solved:  node.solved,
			Plain:   node.value.Plain,
			Forcing: node.value.Forcing,
			Edges:   make([]edgeRecord, 0, len(node.edges)),
		}
		for token, edge := range node.edges {
			rec.Edges = append(rec.Edges, edgeRecord{Token: int(token), Result: int(edge.result), Child: edge.child.Key()})
		}
		data, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		key := append([]byte(prefix+"node/"), position.Key()...)
		if err = wb.Set(key, data); err != nil {
			return err
		}
	}

	for tk, score := range g.terminals {
		data, err := encodeRecord(score)
		if err != nil {
			return err
		}
		key := append([]byte(prefix+"terminal/"), byte(tk.result))
		key = append(key, tk.position.Key()...)
		if err = wb.Set(key, data); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// Load rebuilds the current generation of the graph saved under slug.
func (s *GraphBadgerStore) Load(slug string) (*SolvedGraph, error) {
	var g *SolvedGraph
	var meta graphMetaRecord

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if meta, err = s.readMeta(txn, slug); err != nil {
			return err
		}
		root, ok := tsumego.PositionFromKey(meta.Root)
		if !ok {
			return fmt.Errorf("%w: bad root key", errors.ErrMalformedGraph)
		}
		g = newSolvedGraph(slug, root, meta.Moves)

		prefix := generationPrefix(slug, meta.Generation)
		if err = s.loadNodes(txn, prefix+"node/", g); err != nil {
			return err
		}
		return s.loadTerminals(txn, prefix+"terminal/", g)
	})
	if err != nil {
		return nil, err
	}
	if len(g.nodes) != meta.Nodes || len(g.terminals) != meta.Terminals {
		return nil, fmt.Errorf("%w: %s has %d nodes and %d terminals, expected %d and %d",
			errors.ErrMalformedGraph, slug, len(g.nodes), len(g.terminals), meta.Nodes, meta.Terminals)
	}
	if _, ok := g.nodes[g.root]; !ok {
		return nil, fmt.Errorf("%w: %s has no root node", errors.ErrMalformedGraph, slug)
	}
	return g, nil
}

func (s *GraphBadgerStore) loadNodes(txn *badger.Txn, prefix string, g *SolvedGraph) error {
	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: []byte(prefix)})
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		position, ok := tsumego.PositionFromKey(item.Key()[len(prefix):])
		if !ok {
			return fmt.Errorf("%w: bad node key", errors.ErrMalformedGraph)
		}
		var rec nodeRecord
		if err := item.Value(func(val []byte) error { return decodeRecord(val, &rec) }); err != nil {
			return err
		}
		node := &graphNode{
			value:  tsumego.DualBound{Plain: rec.Plain, Forcing: rec.Forcing},
			solved: rec.Solved,
			edges:  make(map[tsumego.MoveToken]graphEdge, len(rec.Edges)),
		}
		for _, e := range rec.Edges {
			child, ok := tsumego.PositionFromKey(e.Child)
			if !ok {
				return fmt.Errorf("%w: bad edge key", errors.ErrMalformedGraph)
			}
			node.edges[tsumego.MoveToken(e.Token)] = graphEdge{result: tsumego.ResultCode(e.Result), child: child}
		}
		g.nodes[position] = node
	}
	return nil
}

func (s *GraphBadgerStore) loadTerminals(txn *badger.Txn, prefix string, g *SolvedGraph) error {
	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: []byte(prefix)})
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		rest := item.Key()[len(prefix):]
		if len(rest) < 1 {
			return fmt.Errorf("%w: bad terminal key", errors.ErrMalformedGraph)
		}
		position, ok := tsumego.PositionFromKey(rest[1:])
		if !ok {
			return fmt.Errorf("%w: bad terminal key", errors.ErrMalformedGraph)
		}
		var score float64
		if err := item.Value(func(val []byte) error { return decodeRecord(val, &score) }); err != nil {
			return err
		}
		g.terminals[terminalKey{result: tsumego.ResultCode(rest[0]), position: position}] = score
	}
	return nil
}

// Slugs lists the stored graphs.
func (s *GraphBadgerStore) Slugs() ([]string, error) {
	slugs := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false, Prefix: []byte(graphPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if rest, ok := strings.CutSuffix(strings.TrimPrefix(key, graphPrefix), "/meta"); ok && !strings.Contains(rest, "/") {
				slugs = append(slugs, rest)
			}
		}
		return nil
	})
	return slugs, err
}
