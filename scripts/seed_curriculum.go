// 手动触发数据库迁移和课程种子数据脚本
//
// 该功能已集成到主应用的 --migrate / --migrate-only 启动参数中。
// 此脚本仅用于手动触发，例如在不启动完整服务的环境里初始化数据库。
//
// 用法: go run scripts/seed_curriculum.go

package main

import (
	"log"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/pkg/database"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	if err := database.SeedCurriculum(db); err != nil {
		log.Fatalf("课程种子数据写入失败: %v", err)
	}

	log.Println("数据库迁移和课程种子数据完成")
}
