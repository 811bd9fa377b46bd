// Package sqlite provides persistent storage backed by a single SQLite
// database file. It serves the document store, the conversation store and
// the vector index through wrapper types sharing one connection pool.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/archivist-labs/parley-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// metadata store interfaces and the vector index through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.parley/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".parley", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ConversationStore returns a ConversationStore interface backed by this store.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
}

// VectorIndex returns a VectorIndex interface backed by this store.
// Vectors are stored as little-endian float32 blobs; similarity is
// cosine, computed in process over the stored rows.
func (s *Store) VectorIndex(dimensions int) (driven.VectorIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive", domain.ErrInvalidConfig)
	}
	return &vectorIndex{store: s, dimensions: dimensions}, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	chunkIDsJSON, err := json.Marshal(doc.ChunkIDs)
	if err != nil {
		return fmt.Errorf("marshalling chunk IDs: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, status, failure_reason, chunk_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			status = excluded.status,
			failure_reason = excluded.failure_reason,
			chunk_ids = excluded.chunk_ids,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Filename, string(doc.Status), doc.FailureReason,
		string(chunkIDsJSON), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks for a document, replacing any previous set.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", chunks[0].DocumentID); err != nil {
		return fmt.Errorf("clearing previous chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, start_offset, end_offset, position, vector_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Text,
			chunk.StartOffset, chunk.EndOffset, chunk.Index, chunk.VectorID); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, filename, status, failure_reason, chunk_ids, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row.Scan)
}

// GetChunks retrieves all chunks for a document in sequence order.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, content, start_offset, end_offset, position, vector_id
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows.Scan)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, content, start_offset, end_offset, position, vector_id
		FROM chunks WHERE id = ?
	`, id)

	return scanChunk(row.Scan)
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns all documents, oldest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, status, failure_reason, chunk_ids, created_at, updated_at
		FROM documents
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// ==================== Conversation Store ====================

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// SaveConversation creates the conversation record.
func (s *conversationStore) SaveConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO conversations (id, created_at)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at
	`, conv.ID, conv.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation without its turns.
func (s *conversationStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM conversations WHERE id = ?", id)

	var conv domain.Conversation
	if err := row.Scan(&conv.ID, &conv.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}
	return &conv, nil
}

// AppendTurn appends one turn. The sequence number is assigned inside the
// insert so concurrent appends never collide.
func (s *conversationStore) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	var exists int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM conversations WHERE id = ?", turn.ConversationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking conversation: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	citationsJSON, err := json.Marshal(turn.Citations)
	if err != nil {
		return fmt.Errorf("marshalling citations: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO turns (id, conversation_id, seq, role, content, citations, state, failure_reason, created_at)
		VALUES (?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE conversation_id = ?),
			?, ?, ?, ?, ?, ?)
	`, turn.ID, turn.ConversationID, turn.ConversationID,
		string(turn.Role), turn.Text, string(citationsJSON),
		string(turn.State), turn.FailureReason, turn.CreatedAt)

	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// GetTurns returns all turns for a conversation in append order.
func (s *conversationStore) GetTurns(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	var exists int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM conversations WHERE id = ?", conversationID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking conversation: %w", err)
	}
	if exists == 0 {
		return nil, domain.ErrNotFound
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, citations, state, failure_reason, created_at
		FROM turns WHERE conversation_id = ?
		ORDER BY seq
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var turn domain.Turn
		var role, state, citationsJSON string
		if err := rows.Scan(&turn.ID, &turn.ConversationID, &role, &turn.Text,
			&citationsJSON, &state, &turn.FailureReason, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Role = domain.TurnRole(role)
		turn.State = domain.TurnState(state)
		if err := json.Unmarshal([]byte(citationsJSON), &turn.Citations); err != nil {
			return nil, fmt.Errorf("unmarshalling citations: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	return turns, nil
}

// ListConversations returns all conversations, oldest first.
func (s *conversationStore) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, created_at FROM conversations ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var convs []domain.Conversation //nolint:prealloc // size unknown from query
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(&conv.ID, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		convs = append(convs, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}

	return convs, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanDocument scans a document using the given scan function.
func scanDocument(scan func(dest ...any) error) (*domain.Document, error) {
	var doc domain.Document
	var status, chunkIDsJSON string

	if err := scan(&doc.ID, &doc.Filename, &status, &doc.FailureReason,
		&chunkIDsJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if err := json.Unmarshal([]byte(chunkIDsJSON), &doc.ChunkIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling chunk IDs: %w", err)
	}

	return &doc, nil
}

// scanChunk scans a chunk using the given scan function.
func scanChunk(scan func(dest ...any) error) (*domain.Chunk, error) {
	var chunk domain.Chunk
	if err := scan(&chunk.ID, &chunk.DocumentID, &chunk.Text,
		&chunk.StartOffset, &chunk.EndOffset, &chunk.Index, &chunk.VectorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return &chunk, nil
}
