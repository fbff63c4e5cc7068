package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/pettyvault/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database schema", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database schema for:", databasePath)
	}

	// Foreign keys are off by default in sqlite.
	if _, err := DB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		stdlog.Printf("failed to enable foreign keys: %v", err)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		password_reset_token TEXT,
		password_reset_token_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		street TEXT,
		city TEXT,
		state TEXT,
		country TEXT,
		phone TEXT,
		email TEXT,
		owner_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(owner_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS memberships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		company_id TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(company_id) REFERENCES companies(id),
		UNIQUE(user_id, company_id)
	);

	CREATE TABLE IF NOT EXISTS funds (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		current_balance REAL NOT NULL DEFAULT 0,
		total_spent REAL NOT NULL DEFAULT 0,
		total_added REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(company_id) REFERENCES companies(id)
	);

	CREATE TABLE IF NOT EXISTS requisitions (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		fund_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		amount REAL NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(company_id) REFERENCES companies(id),
		FOREIGN KEY(fund_id) REFERENCES funds(id),
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		fund_id TEXT NOT NULL,
		requisition_id TEXT,
		amount REAL NOT NULL,
		type TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(company_id) REFERENCES companies(id),
		FOREIGN KEY(fund_id) REFERENCES funds(id),
		FOREIGN KEY(requisition_id) REFERENCES requisitions(id)
	);

	CREATE TABLE IF NOT EXISTS invites (
		token TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(company_id) REFERENCES companies(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}

	migrateUserTable()

	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateUserTable adds columns introduced after the first release to
// existing databases.
func migrateUserTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='users'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'users' table", "error", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(users)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'users'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'users'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'users'", "error", err)
		}
		return
	}

	if _, ok := columnExists["password_reset_token"]; !ok {
		if _, err := DB.Exec("ALTER TABLE users ADD COLUMN password_reset_token TEXT"); err != nil {
			logger.L.Error("Error adding 'password_reset_token' column to 'users' table", "error", err)
		} else {
			logger.L.Info("Added 'password_reset_token' column to 'users' table")
		}
	}
	if _, ok := columnExists["password_reset_token_expires_at"]; !ok {
		if _, err := DB.Exec("ALTER TABLE users ADD COLUMN password_reset_token_expires_at TIMESTAMP"); err != nil {
			logger.L.Error("Error adding 'password_reset_token_expires_at' column to 'users' table", "error", err)
		} else {
			logger.L.Info("Added 'password_reset_token_expires_at' column to 'users' table")
		}
	}
}
