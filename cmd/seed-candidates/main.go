package main

import (
	"context"
	"fmt"
	"time"

	"github.com/certilearn/assessd-backend/internal/config"
	"github.com/certilearn/assessd-backend/internal/database"
	"github.com/certilearn/assessd-backend/internal/logger"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/certilearn/assessd-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds 50 demo candidates with the shared password "letmein" for load and
// integration testing against a fresh database.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	candidateRepo := repository.NewCandidateRepository(pool)

	fmt.Println("=== Seeding 50 Candidates ===")

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
		"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
		"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
		"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
		"Wahyu Hidayat", "Xena Maharani", "Yudi Pratama", "Zaki Anwar", "Alifia Zahra",
		"Bagas Saputra", "Citra Kirana", "Dimas Anggara", "Elisa Novita", "Fikri Maulana",
		"Gali Rakasiwi", "Hani Hanifah", "Iqbal Ramadhan", "Jasmine Azzahra", "Kevin Sanjaya",
		"Larasati Dewi", "Miko Pambudi", "Nia Ramadhani", "Oscar Lawalata", "Puput Melati",
		"Reza Rahadian", "Sari Nila", "Tigor Siahaan", "Utari Maharani", "Vicky Prasetyo",
	}

	successCount := 0
	for i, name := range names {
		candidate := &model.Candidate{
			Name:         name,
			Username:     fmt.Sprintf("candidate%02d", i+1),
			PasswordHash: string(hash),
		}

		if err := candidateRepo.Create(ctx, candidate); err != nil {
			fmt.Printf("Error creating candidate %s (%s): %v\n", candidate.Name, candidate.Username, err)
		} else {
			successCount++
			if (i+1)%10 == 0 {
				fmt.Printf("Created %d candidates...\n", i+1)
			}
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d candidates.\n", successCount, len(names))
}
