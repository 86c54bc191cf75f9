package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BTreeMap/LoveLoop/internal/models"
)

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL
// DSNs come as URLs (postgres://...) or key=value strings (host=...);
// anything else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// scanSession scans a Session from a single sql.Row, decoding the JSON
// character columns.
func scanSession(row *sql.Row) (*models.Session, error) {
	var sess models.Session
	var playerJSON, partnerJSON, status string
	err := row.Scan(
		&sess.ID, &playerJSON, &partnerJSON, &sess.RelationshipStory, &sess.Worldview,
		&sess.Affinity, &sess.StageLabel, &sess.LastPanelText, &status,
		&sess.Generation, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(playerJSON), &sess.Player); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player for session %s: %w", sess.ID, err)
	}
	if err := json.Unmarshal([]byte(partnerJSON), &sess.Partner); err != nil {
		return nil, fmt.Errorf("failed to unmarshal partner for session %s: %w", sess.ID, err)
	}
	sess.Status = models.SessionStatus(status)
	return &sess, nil
}

// scanMessage scans a Message from sql.Rows.
func scanMessage(rows *sql.Rows) (models.Message, error) {
	var m models.Message
	var sender string
	err := rows.Scan(&m.ID, &m.SessionID, &sender, &m.Text, &m.Timestamp)
	if err != nil {
		return m, fmt.Errorf("scan message failed: %w", err)
	}
	m.Sender = models.MessageSender(sender)
	return m, nil
}
