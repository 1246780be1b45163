// internal/service/catalog/infrastructure/seed_loader.go
package infrastructure

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"petshop/internal/pkg/logger"
	"petshop/internal/pkg/money"
	"petshop/internal/service/catalog/domain"
)

// seedRecord 是种子文件里的原始记录。价格是带千分位和货币符号的
// 展示字符串（如 "1.234.567đ"），在这里归一化成数值，后续所有计算
// 都不再碰字符串价格。
type seedRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stockQuantity"`
	Image         string `json:"image"`
	Description   string `json:"description"`
}

// SeedLoader 并发加载静态商品种子文件
type SeedLoader struct {
	repo domain.ProductRepository
	dir  string
}

func NewSeedLoader(repo domain.ProductRepository, dir string) *SeedLoader {
	return &SeedLoader{repo: repo, dir: dir}
}

// Load 并发读取目录下的所有种子文件并写入仓储。
// 类目取自文件名（cats.json 对应 cats）。任何一个文件失败整体失败。
func (l *SeedLoader) Load(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read seed directory")
	}

	var (
		mu    sync.Mutex
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			count, err := l.loadFile(gctx, filepath.Join(l.dir, name), strings.TrimSuffix(name, ".json"))
			if err != nil {
				return errors.Wrapf(err, "failed to load seed file %s", name)
			}
			mu.Lock()
			total += count
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

func (l *SeedLoader) loadFile(ctx context.Context, path, category string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, err
	}

	count := 0
	for _, rec := range records {
		if rec.ID == "" {
			logger.Ctx(ctx).Warn().Str("file", path).Str("name", rec.Name).Msg("skipping seed record without id")
			continue
		}
		price := money.ParsePrice(rec.Price)
		product := &domain.Product{
			ID:            rec.ID,
			Name:          rec.Name,
			Category:      category,
			Price:         price,
			StockQuantity: rec.StockQuantity,
			Image:         rec.Image,
			Description:   rec.Description,
		}
		if err := l.repo.Save(ctx, product); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
