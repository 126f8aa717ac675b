package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oxidoc/oxidoc/internal/cas"
	"github.com/oxidoc/oxidoc/internal/config"
	"github.com/oxidoc/oxidoc/internal/corpus"
	"github.com/oxidoc/oxidoc/internal/db"
	md "github.com/oxidoc/oxidoc/internal/markdown"
	"github.com/oxidoc/oxidoc/internal/rpc"
	"golang.org/x/sync/singleflight"
)

type versionCacheEntry struct {
	version  string // resolved real version; empty for 404s
	notFound bool
	expiry   time.Time
}

// flattenedCrate is one crate's flattened pages, indexed for fragment
// lookups.
type flattenedCrate struct {
	byDefID map[string]corpus.ParsedDoc
}

type Server struct {
	db         *db.DB
	cas        *cas.Store
	cfg        *config.Config
	socketPath string
	httpServer *http.Server
	listener   net.Listener

	mu         sync.Mutex
	expTimer   *time.Timer
	expiration time.Duration

	versionCache   map[string]versionCacheEntry
	versionCacheMu sync.RWMutex
	addCrateGroup  singleflight.Group

	crateCache   map[string]*flattenedCrate
	crateCacheMu sync.RWMutex
}

func NewServer(cfg *config.Config, database *db.DB, socketPath string) *Server {
	expSec := cfg.Daemon.ExpirationSeconds
	if expSec <= 0 {
		expSec = 600
	}

	return &Server{
		db:           database,
		cas:          cas.Default(),
		cfg:          cfg,
		socketPath:   socketPath,
		expiration:   time.Duration(expSec) * time.Second,
		versionCache: make(map[string]versionCacheEntry),
		crateCache:   make(map[string]*flattenedCrate),
	}
}

func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("POST /add-crates", s.withExpReset(s.handleAddCrates))
	mux.HandleFunc("POST /search", s.withExpReset(s.handleSearch))
	mux.HandleFunc("POST /get-doc", s.withExpReset(s.handleGetDoc))
	mux.HandleFunc("GET /status", s.withExpReset(s.handleStatus))
	mux.HandleFunc("POST /clear-cache", s.withExpReset(s.handleClearCache))
	mux.HandleFunc("POST /shutdown", s.handleShutdown)

	s.httpServer = &http.Server{Handler: mux}

	s.mu.Lock()
	s.expTimer = time.AfterFunc(s.expiration, s.expire)
	s.mu.Unlock()

	log.Printf("daemon: listening on %s (expires after %s of inactivity)", s.socketPath, s.expiration)

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("daemon: shutdown error: %v", err)
			errs = append(errs, err)
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			log.Printf("daemon: listener close error: %v", err)
			errs = append(errs, err)
		}
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Printf("daemon: socket remove error: %v", err)
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		log.Printf("daemon: db close error: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) expire() {
	log.Printf("daemon: expiring due to inactivity")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)
	os.Exit(0)
}

func (s *Server) resetExpiration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expTimer != nil {
		s.expTimer.Stop()
		s.expTimer.Reset(s.expiration)
	}
}

func (s *Server) withExpReset(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.resetExpiration()
		handler(w, r)
	}
}

func (s *Server) handleAddCrates(w http.ResponseWriter, r *http.Request) {
	var req rpc.AddCratesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(line rpc.ProgressLine) bool {
		log.Printf("daemon: %s", line.Message)
		if err := enc.Encode(line); err != nil {
			log.Printf("daemon: client disconnected: %v", err)
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	for _, spec := range req.Crates {
		progress := func(msg string) {
			send(rpc.ProgressLine{Type: "progress", Message: msg})
		}
		result := s.addCrate(spec, progress)
		if !send(rpc.ProgressLine{Type: "result", Result: &result}) {
			return
		}
	}
}

const versionCacheTTL = 10 * time.Minute

func (s *Server) getCachedVersion(name string) (versionCacheEntry, bool) {
	s.versionCacheMu.RLock()
	defer s.versionCacheMu.RUnlock()
	entry, ok := s.versionCache[name]
	if !ok || time.Now().After(entry.expiry) {
		return versionCacheEntry{}, false
	}
	return entry, true
}

func (s *Server) setCachedVersion(name, version string, notFound bool) {
	s.versionCacheMu.Lock()
	defer s.versionCacheMu.Unlock()
	s.versionCache[name] = versionCacheEntry{
		version:  version,
		notFound: notFound,
		expiry:   time.Now().Add(versionCacheTTL),
	}
}

func (s *Server) clearVersionCache() {
	s.versionCacheMu.Lock()
	defer s.versionCacheMu.Unlock()
	s.versionCache = make(map[string]versionCacheEntry)
}

// getFlattenedCrate rebuilds a crate's flattened pages, checking the
// in-memory cache first and the on-disk snapshot cache second.
func (s *Server) getFlattenedCrate(name, version string) *flattenedCrate {
	key := name + "@" + version
	s.crateCacheMu.RLock()
	c, ok := s.crateCache[key]
	s.crateCacheMu.RUnlock()
	if ok {
		return c
	}

	snap, err := corpus.LoadSnapshotCache(name, version)
	if err != nil {
		return nil
	}
	build, err := corpus.BuildCrate(snap, s.cfg.Render.DocRoots, s.cfg.Nightly())
	if err != nil {
		log.Printf("daemon: rebuilding %s@%s from snapshot cache failed: %v", name, version, err)
		return nil
	}
	corpus.StripPrivate(build.Crate)

	c = &flattenedCrate{byDefID: make(map[string]corpus.ParsedDoc)}
	for _, doc := range build.Docs() {
		c.byDefID[doc.DefID] = doc
	}

	s.crateCacheMu.Lock()
	s.crateCache[key] = c
	s.crateCacheMu.Unlock()
	return c
}

func (s *Server) addCrate(spec rpc.CrateSpec, progress func(string)) rpc.CrateResult {
	version := spec.Version
	if version == "" {
		version = "latest"
	}

	result := rpc.CrateResult{Name: spec.Name, Version: version}

	// Check version cache for "latest" requests
	if version == "latest" {
		if entry, ok := s.getCachedVersion(spec.Name); ok {
			if entry.notFound {
				result.Error = fmt.Sprintf("crate %s not found on docs.rs (cached)", spec.Name)
				return result
			}
			// Use the cached real version and check the DB
			existing, err := s.db.GetCrate(spec.Name, entry.version)
			if err != nil {
				result.Error = err.Error()
				return result
			}
			if existing != nil && existing.ProcessedAt != nil {
				result.Version = existing.Version
				result.Items, _ = s.db.CountItems(existing.ID)
				return result
			}
		}
	}

	// For "latest", check if we already have any processed version in DB
	if version == "latest" {
		existing, err := s.db.GetLatestCrate(spec.Name)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil {
			result.Version = existing.Version
			result.Items, _ = s.db.CountItems(existing.ID)
			return result
		}
	} else {
		// Exact version: check if already processed
		existing, err := s.db.GetCrate(spec.Name, version)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil && existing.ProcessedAt != nil {
			result.Items, _ = s.db.CountItems(existing.ID)
			return result
		}
	}

	// Singleflight: dedup concurrent fetches for the same crate@version
	key := spec.Name + "@" + version
	v, _, _ := s.addCrateGroup.Do(key, func() (interface{}, error) {
		return s.addCrateWork(spec.Name, version, progress), nil
	})
	return v.(rpc.CrateResult)
}

func (s *Server) addCrateWork(name, version string, progress func(string)) rpc.CrateResult {
	result := rpc.CrateResult{Name: name, Version: version}

	requested := version
	if requested == "latest" {
		requested = ""
	}
	loaded, err := corpus.Load(name, requested, s.cfg.Render.DocRoots, s.cfg.Nightly(), progress)
	if err != nil {
		if version == "latest" {
			s.setCachedVersion(name, "", true)
		}
		result.Error = err.Error()
		return result
	}
	realVersion := loaded.Version
	if realVersion == "" {
		realVersion = version
	}

	// The resolved version may already be processed
	if realVersion != version {
		existing, err := s.db.GetCrate(name, realVersion)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil && existing.ProcessedAt != nil {
			result.Version = realVersion
			result.Items, _ = s.db.CountItems(existing.ID)
			s.setCachedVersion(name, realVersion, false)
			return result
		}
	}
	result.Version = realVersion
	s.setCachedVersion(name, realVersion, false)

	crate, err := s.db.UpsertCrate(name, realVersion)
	if err != nil {
		result.Error = fmt.Sprintf("upserting crate: %v", err)
		return result
	}
	s.db.MarkCrateFetched(crate.ID)

	indexed, err := s.indexDocs(crate, loaded, progress)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	s.db.MarkCrateProcessed(crate.ID)
	result.Items = indexed
	progress(fmt.Sprintf("finished indexing %s@%s (%d items)", name, realVersion, indexed))
	return result
}

// indexDocs writes flattened pages to the CAS and the index tables.
func (s *Server) indexDocs(crate *db.Crate, loaded *corpus.LoadResult, progress func(string)) (int, error) {
	progress(fmt.Sprintf("indexing %d pages from %s@%s", len(loaded.Docs), crate.Name, crate.Version))

	s.db.DeleteItemsByCrate(crate.ID)
	s.db.DeleteReexportsByCrate(crate.ID)

	for _, re := range loaded.Reexports {
		if err := s.db.InsertReexport(crate.ID, re.LocalPrefix, re.SourceCrate, re.SourcePrefix); err != nil {
			log.Printf("daemon: failed to insert reexport %s -> %s/%s: %v", re.LocalPrefix, re.SourceCrate, re.SourcePrefix, err)
		}
	}

	indexed := 0
	for _, parsed := range loaded.Docs {
		var contentHash string
		if parsed.Docs != "" {
			h, err := s.cas.Put(parsed.Docs)
			if err != nil {
				log.Printf("daemon: failed to store docs for %s: %v", parsed.Path, err)
				continue
			}
			contentHash = h
		}

		var docLinksJSON string
		if len(parsed.Links) > 0 {
			b, _ := json.Marshal(parsed.Links)
			docLinksJSON = string(b)
		}

		var fragNamesJSON string
		if len(parsed.Fragments) > 0 {
			names := make([]string, 0, len(parsed.Fragments))
			for name := range parsed.Fragments {
				names = append(names, name)
			}
			sort.Strings(names)
			b, _ := json.Marshal(names)
			fragNamesJSON = string(b)
		}

		dbItem := &db.Item{
			CrateID:       crate.ID,
			DefID:         parsed.DefID,
			Name:          parsed.Name,
			Path:          parsed.Path,
			Kind:          parsed.Kind,
			ContentHash:   contentHash,
			Stability:     parsed.Stability,
			Deprecated:    parsed.Deprecated,
			Cfg:           parsed.Cfg,
			DocLinks:      docLinksJSON,
			FragmentNames: fragNamesJSON,
		}
		if err := s.db.InsertItem(dbItem); err != nil {
			log.Printf("daemon: failed to insert item %s: %v", parsed.Path, err)
			continue
		}
		indexed++

		for _, alias := range parsed.Aliases {
			if err := s.db.InsertAlias(dbItem.ID, alias); err != nil {
				log.Printf("daemon: failed to insert alias %q for %s: %v", alias, parsed.Path, err)
			}
		}
	}

	return indexed, nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req rpc.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}

	var crateIDs []int
	if len(req.Crates) > 0 {
		ids, err := s.db.GetCrateIDsByNames(req.Crates)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		crateIDs = ids
	}

	matches, err := s.db.SearchItems(req.Query, req.Limit, crateIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	itemIDs := make([]int, len(matches))
	for i, m := range matches {
		itemIDs[i] = m.ItemID
	}
	crates, err := s.db.GetCratesForItems(itemIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]rpc.DocResult, 0, len(matches))
	for _, m := range matches {
		crate, ok := crates[m.ItemID]
		if !ok {
			continue
		}
		res := rpc.DocResult{
			URI:          docURI(crate.Name, crate.Version, m.Path, ""),
			CrateName:    crate.Name,
			CrateVersion: crate.Version,
			Path:         m.Path,
			Kind:         m.Kind,
			MatchedBy:    m.Via,
		}
		res.Snippet = s.snippetFor(m.ItemID)
		results = append(results, res)
	}

	writeJSON(w, http.StatusOK, rpc.SearchResponse{Results: results})
}

// snippetFor returns the first documentation line of an item, skipping the
// generated heading and code block.
func (s *Server) snippetFor(itemID int) string {
	item, err := s.db.GetItem(itemID)
	if err != nil || item == nil || item.ContentHash == "" {
		return ""
	}
	text, err := s.cas.Get(item.ContentHash)
	if err != nil {
		return ""
	}
	inCode := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			continue
		}
		if inCode || trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "**") {
			continue
		}
		return trimmed
	}
	return ""
}

// resolveOrFetchCrate looks up a crate, resolving "latest" and auto-fetching if needed.
func (s *Server) resolveOrFetchCrate(name, version string) (*db.Crate, error) {
	if version == "latest" || version == "" {
		// Try to find any already-processed version
		existing, err := s.db.GetLatestCrate(name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	} else {
		existing, err := s.db.GetCrate(name, version)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ProcessedAt != nil {
			return existing, nil
		}
	}

	// Not found, auto-fetch
	result := s.addCrate(rpc.CrateSpec{Name: name, Version: version}, func(msg string) {
		log.Printf("auto-fetch: %s", msg)
	})
	if result.Error != "" {
		return nil, fmt.Errorf("%s", result.Error)
	}

	// Retry lookup with the resolved version
	return s.db.GetCrate(name, result.Version)
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	var req rpc.GetDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Resolve crate: try exact version, then latest, then auto-fetch
	crate, err := s.resolveOrFetchCrate(req.Crate, req.Version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not found", req.Crate, req.Version))
		return
	}

	item, err := s.db.GetItemByPath(crate.ID, req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// If not found, check re-export mappings and redirect to the source crate
	if item == nil {
		srcCrate, srcPath, found := s.db.ResolveReexport(crate.ID, req.Path)
		if found {
			sourceCrate, err := s.resolveOrFetchCrate(srcCrate, "latest")
			if err != nil {
				log.Printf("daemon: re-export fetch for %s failed: %v", srcCrate, err)
			} else if sourceCrate != nil {
				item, err = s.db.GetItemByPath(sourceCrate.ID, srcPath)
				if err != nil {
					log.Printf("daemon: re-export lookup for %s in %s failed: %v", srcPath, srcCrate, err)
				} else if item != nil {
					crate = sourceCrate
					req.Crate = sourceCrate.Name
					req.Path = srcPath
				}
			}
		}
	}

	if item == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("item %s not found in %s@%s", req.Path, req.Crate, crate.Version))
		return
	}

	// Fragment request: rebuild on the fly from the cached snapshot
	if req.Fragment != "" {
		cached := s.getFlattenedCrate(req.Crate, crate.Version)
		if cached == nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("snapshot cache not available for %s@%s", req.Crate, crate.Version))
			return
		}
		doc, ok := cached.byDefID[item.DefID]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("item %s not found in snapshot cache", item.DefID))
			return
		}
		fragContent := doc.Fragments[req.Fragment]
		if fragContent == "" {
			writeError(w, http.StatusNotFound, fmt.Sprintf("fragment #%s not found for %s", req.Fragment, req.Path))
			return
		}
		writeJSON(w, http.StatusOK, rpc.GetDocResponse{Markdown: fragContent})
		return
	}

	// Full item: the stored page already carries the heading and signature
	var docsText string
	if item.ContentHash != "" {
		docsText, _ = s.cas.Get(item.ContentHash)
	}

	var docLinks map[string]string
	if item.DocLinks != "" {
		if err := json.Unmarshal([]byte(item.DocLinks), &docLinks); err != nil {
			log.Printf("daemon: failed to unmarshal doc_links for %s: %v", item.Path, err)
		}
	}

	text := md.RewriteLinks(docsText, docLinks)

	if item.FragmentNames != "" {
		var fragNames []string
		if json.Unmarshal([]byte(item.FragmentNames), &fragNames) == nil && len(fragNames) > 0 {
			fragURIs := make(map[string]string, len(fragNames))
			for _, name := range fragNames {
				fragURIs[name] = docURI(req.Crate, crate.Version, req.Path, name)
			}
			text = md.AddFrontMatter(text, fragURIs)
		}
	}

	writeJSON(w, http.StatusOK, rpc.GetDocResponse{Markdown: text})
}

// docURI builds an oxdoc:// resource URI for an item or one of its
// fragments.
func docURI(crate, version, path, fragment string) string {
	uri := fmt.Sprintf("oxdoc://%s/%s/%s", crate, version, path)
	if fragment != "" {
		uri += "#" + fragment
	}
	return uri
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	crates, err := s.db.ListCrates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var status []rpc.CrateStatus
	for _, c := range crates {
		status = append(status, rpc.CrateStatus{
			Name:      c.Name,
			Version:   c.Version,
			Processed: c.ProcessedAt != nil,
		})
	}

	writeJSON(w, http.StatusOK, rpc.StatusResponse{Crates: status})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.clearVersionCache()
	s.crateCacheMu.Lock()
	s.crateCache = make(map[string]*flattenedCrate)
	s.crateCacheMu.Unlock()
	log.Printf("daemon: version and crate caches cleared")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
		os.Exit(0)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
