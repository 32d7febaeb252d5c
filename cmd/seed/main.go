package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"filevault/internal/config"
	vaultSvc "filevault/internal/domain/services/vault"
	"filevault/internal/repository/postgres"
	postgresVault "filevault/internal/repository/postgres/vault"
	serviceVault "filevault/internal/service/vault"
	"filevault/internal/storage/blob"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type seedUser struct {
	id      string
	name    string
	email   string
	isAdmin bool
}

var seedUsers = []seedUser{
	{id: "admin", name: "Site Admin", email: "admin@example.com", isAdmin: true},
	{id: "alice", name: "Alice Architect", email: "alice@example.com"},
	{id: "bob", name: "Bob Builder", email: "bob@example.com"},
}

type seedFile struct {
	folder  string
	name    string
	content string
}

var seedFiles = []seedFile{
	{folder: "", name: "README.txt", content: "Project vault for the demo project.\n"},
	{folder: "Design", name: "brief.md", content: "# Design brief\n\nThree storeys, timber frame.\n"},
	{folder: "Design/IFC", name: "model-notes.txt", content: "IFC export pending structural review.\n"},
	{folder: "Contracts", name: "terms.txt", content: "Draft terms, not for distribution.\n"},
}

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all vault tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only apply migrations, don't seed data")
	clearData := flag.Bool("clear-data", false, "Clear the project's folders, files and grants (keep schema)")
	projectID := flag.String("project", "demo-project", "Project to seed")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.RunMigrations(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		return
	}

	log.Printf("🧹 Clearing project %s...", *projectID)
	if err := clearProjectData(ctx, pool, tables, *projectID); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	if *clearData {
		log.Println("✅ Data cleared successfully")
		return
	}

	if err := ensureMembers(ctx, pool, tables, *projectID); err != nil {
		log.Fatalf("Failed to ensure project members: %v", err)
	}

	blobs, err := blob.NewFromConfig(ctx, cfg.Blob, logger)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgresVault.NewFolderRepository(repoConfig)
	fileRepo := postgresVault.NewFileRepository(repoConfig)
	permRepo := postgresVault.NewPermissionRepository(repoConfig)
	gate := postgresVault.NewAccessGate(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	resolver := serviceVault.NewResolver(gate, folderRepo, permRepo, logger)
	authorizer := serviceVault.NewAuthorizer(gate, resolver)
	folderService := serviceVault.NewFolderService(folderRepo, fileRepo, txManager, authorizer, resolver, logger)
	fileService := serviceVault.NewFileService(fileRepo, postgresVault.NewRevisionRepository(repoConfig), folderRepo, blobs, txManager, authorizer, logger)
	permService := serviceVault.NewPermissionService(permRepo, folderRepo, gate, txManager, authorizer, resolver, logger)

	log.Println("📁 Seeding folders...")
	folderIDs := map[string]string{}
	for _, path := range []string{"Design", "Design/IFC", "Contracts"} {
		name := path
		var parentID *string
		if i := strings.LastIndex(path, "/"); i >= 0 {
			name = path[i+1:]
			id := folderIDs[path[:i]]
			parentID = &id
		}
		folder, err := folderService.CreateFolder(ctx, &vaultSvc.CreateFolderRequest{
			ProjectID: *projectID,
			UserID:    "admin",
			Name:      name,
			ParentID:  parentID,
		})
		if err != nil {
			log.Fatalf("Failed to create folder %s: %v", path, err)
		}
		folderIDs[path] = folder.ID
	}

	log.Println("📝 Seeding files...")
	for _, f := range seedFiles {
		if _, err := fileService.UploadFile(ctx, &vaultSvc.UploadFileRequest{
			ProjectID:   *projectID,
			UserID:      "alice",
			FolderPath:  f.folder,
			Name:        f.name,
			ContentType: "text/plain",
			Content:     strings.NewReader(f.content),
		}); err != nil {
			log.Fatalf("Failed to upload %s: %v", f.name, err)
		}
	}

	// Alice writes everywhere; bob only reads Design and below
	log.Println("🔐 Seeding grants...")
	design := folderIDs["Design"]
	grants := []vaultSvc.GrantRequest{
		{ProjectID: *projectID, ActorID: "admin", UserID: "alice", CanRead: true, CanWrite: true},
		{ProjectID: *projectID, ActorID: "admin", FolderID: &design, UserID: "bob", CanRead: true},
	}
	for _, g := range grants {
		if _, err := permService.Grant(ctx, &g); err != nil {
			log.Fatalf("Failed to grant %s: %v", g.UserID, err)
		}
	}

	log.Printf("✅ Seeded project %s: %d folders, %d files", *projectID, len(folderIDs), len(seedFiles))
}

// ensureMembers upserts the demo users and their membership in the project
func ensureMembers(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, projectID string) error {
	for _, u := range seedUsers {
		_, err := pool.Exec(ctx, `
			INSERT INTO `+tables.Users+` (id, name, email, is_admin)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, is_admin = EXCLUDED.is_admin
		`, u.id, u.name, u.email, u.isAdmin)
		if err != nil {
			return err
		}
		if u.isAdmin {
			continue
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO `+tables.ProjectMembers+` (project_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, projectID, u.id)
		if err != nil {
			return err
		}
	}
	return nil
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.FileRevisions,
		tables.Files,
		tables.FolderPermissions,
		tables.Folders,
		tables.ProjectMembers,
		tables.Users,
		tables.Prefix + "goose_db_version",
	}

	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}
	return nil
}

// clearProjectData removes the project's vault rows. Blobs are left behind.
func clearProjectData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, projectID string) error {
	statements := []string{
		"DELETE FROM " + tables.FileRevisions + " WHERE file_id IN (SELECT id FROM " + tables.Files + " WHERE project_id = $1)",
		"DELETE FROM " + tables.Files + " WHERE project_id = $1",
		"DELETE FROM " + tables.FolderPermissions + " WHERE project_id = $1",
		"DELETE FROM " + tables.Folders + " WHERE project_id = $1",
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt, projectID); err != nil {
			return err
		}
	}
	return nil
}
