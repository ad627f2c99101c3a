package cmd

import (
	"context"
	"fmt"
	"log"

	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/credential"
	"github.com/campusid/parking-portal/internal/user"
	userPostgres "github.com/campusid/parking-portal/internal/user/postgres"
	"github.com/campusid/parking-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	clearData    bool
	seedPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with one demo account per standard role for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, _, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"activity_logs", "vehicles", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared users, vehicles and activity logs")
		}

		hasher, err := credential.New(cfg.Security.PasswordScheme, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to build hasher: %v", err)
		}
		users := user.NewService(userPostgres.NewUserRepository(db), hasher, logger.LoggerWrapper())

		demo := []user.RegisterDTO{
			{Name: "Dewi Student", NIM: "2101001", Email: "student@campus.id", Role: string(user.RoleStudent)},
			{Name: "Budi Lecturer", NIM: "1980001", Email: "lecturer@campus.id", Role: string(user.RoleLecturer)},
			{Name: "Sari Staff", NIM: "1990001", Email: "staff@campus.id", Role: string(user.RoleStaff)},
			{Name: "Tamu Guest", NIM: "G-0001", Email: "guest@campus.id", Role: string(user.RoleGuest)},
		}

		ctx := context.Background()
		for _, dto := range demo {
			dto.Password = seedPassword
			u, err := users.Register(ctx, dto)
			if errors.HasCode(err, errors.ErrCodeDuplicateEmail) {
				fmt.Println("user already exists:", dto.Email)
				continue
			}
			if err != nil {
				log.Fatalf("failed to seed %s: %v", dto.Email, err)
			}
			fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
		}
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "Password for every demo account")
}
