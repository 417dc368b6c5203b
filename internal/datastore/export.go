package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// DefaultExportBatchSize is the number of rows copied per insert
const DefaultExportBatchSize = 500

// TableStats reports how many rows one table contributed to an export
type TableStats struct {
	Table    string
	Copied   int64
	Duration time.Duration
}

// ExportStats summarizes an Export run
type ExportStats struct {
	Tables  []TableStats
	Elapsed time.Duration
}

// Total returns the number of rows copied across all tables
func (s *ExportStats) Total() int64 {
	var total int64
	for _, t := range s.Tables {
		total += t.Copied
	}
	return total
}

// gormBacked is satisfied by every store that embeds DataStore
type gormBacked interface {
	dataStore() *DataStore
}

func (ds *DataStore) dataStore() *DataStore {
	return ds
}

func unwrapStore(store Interface, role string) (*DataStore, error) {
	backed, ok := store.(gormBacked)
	if !ok {
		return nil, errors.Newf("%s store %T does not support export", role, store).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	ds := backed.dataStore()
	if err := ds.checkOpen(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Export copies subjects, notes and question papers from src into dst.
// Subjects are matched by name, so a seeded target keeps its own subject
// ids. Notes and question papers keep their primary keys, which keeps
// download links stable, and rows already present in dst are overwritten.
func Export(ctx context.Context, src, dst Interface, batchSize int) (*ExportStats, error) {
	source, err := unwrapStore(src, "source")
	if err != nil {
		return nil, err
	}
	target, err := unwrapStore(dst, "target")
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = DefaultExportBatchSize
	}

	start := time.Now()
	stats := &ExportStats{}
	log := GetLogger().WithContext(ctx)

	subjectStart := time.Now()
	subjectIDs, err := exportSubjects(ctx, source.DB, target.DB)
	if err != nil {
		return nil, err
	}
	stats.Tables = append(stats.Tables, TableStats{
		Table:    "subjects",
		Copied:   int64(len(subjectIDs)),
		Duration: time.Since(subjectStart),
	})

	remap := func(table string, id uint) (uint, error) {
		mapped, ok := subjectIDs[id]
		if !ok {
			return 0, errors.Newf("%s row references unknown subject %d", table, id).
				Component("datastore").
				Category(errors.CategoryValidation).
				Context("operation", "export").
				Build()
		}
		return mapped, nil
	}

	notes, err := copyRows(ctx, source.DB, target.DB, batchSize, "notes", func(n *Note) (err error) {
		n.SubjectID, err = remap("notes", n.SubjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	stats.Tables = append(stats.Tables, notes)

	papers, err := copyRows(ctx, source.DB, target.DB, batchSize, "question_papers", func(p *QuestionPaper) (err error) {
		p.SubjectID, err = remap("question_papers", p.SubjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	stats.Tables = append(stats.Tables, papers)

	stats.Elapsed = time.Since(start)
	log.Info("export complete",
		logger.Int64("rows", stats.Total()),
		logger.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

// exportSubjects finds or creates each source subject in the target and
// returns source id to target id.
func exportSubjects(ctx context.Context, src, dst *gorm.DB) (map[uint]uint, error) {
	var subjects []Subject
	if err := src.WithContext(ctx).Order("id ASC").Find(&subjects).Error; err != nil {
		return nil, dbError(err, "export_subjects", "side", "source")
	}

	ids := make(map[uint]uint, len(subjects))
	for _, s := range subjects {
		existing := Subject{Name: s.Name}
		err := dst.WithContext(ctx).Where(Subject{Name: s.Name}).FirstOrCreate(&existing).Error
		if err != nil {
			return nil, dbError(err, "export_subjects", "side", "target", "subject", string(s.Name))
		}
		ids[s.ID] = existing.ID
	}
	return ids, nil
}

// copyRows streams T from src in primary key order and upserts each batch
// into dst after fix has adjusted the row.
func copyRows[T any](ctx context.Context, src, dst *gorm.DB, batchSize int, table string, fix func(*T) error) (TableStats, error) {
	start := time.Now()
	stats := TableStats{Table: table}

	var batch []T
	result := src.WithContext(ctx).FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		for i := range batch {
			if err := fix(&batch[i]); err != nil {
				return err
			}
		}
		err := dst.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&batch).Error
		if err != nil {
			return dbError(err, "export_"+table, "side", "target")
		}
		stats.Copied += int64(len(batch))
		GetLogger().Debug("export batch written",
			logger.String("table", table),
			logger.Int("rows", len(batch)))
		return nil
	})
	if result.Error != nil {
		var enhanced *errors.EnhancedError
		if errors.As(result.Error, &enhanced) {
			return stats, result.Error
		}
		return stats, dbError(result.Error, "export_"+table, "side", "source")
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// Mismatch describes a source row missing from the target after export
type Mismatch struct {
	Table   string
	Missing int64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %d row(s) missing", m.Table, m.Missing)
}

// VerifyExport checks that every subject, note and question paper in src
// exists in dst.
func VerifyExport(ctx context.Context, src, dst Interface) ([]Mismatch, error) {
	source, err := unwrapStore(src, "source")
	if err != nil {
		return nil, err
	}
	target, err := unwrapStore(dst, "target")
	if err != nil {
		return nil, err
	}

	var mismatches []Mismatch

	var names []SubjectName
	if err := source.DB.WithContext(ctx).Model(&Subject{}).Pluck("name", &names).Error; err != nil {
		return nil, dbError(err, "verify_export", "table", "subjects")
	}
	if len(names) > 0 {
		var found int64
		if err := target.DB.WithContext(ctx).Model(&Subject{}).Where("name IN ?", names).Count(&found).Error; err != nil {
			return nil, dbError(err, "verify_export", "table", "subjects")
		}
		if missing := int64(len(names)) - found; missing > 0 {
			mismatches = append(mismatches, Mismatch{Table: "subjects", Missing: missing})
		}
	}

	for _, t := range []struct {
		table string
		model any
	}{
		{"notes", &Note{}},
		{"question_papers", &QuestionPaper{}},
	} {
		var ids []uint
		if err := source.DB.WithContext(ctx).Model(t.model).Pluck("id", &ids).Error; err != nil {
			return nil, dbError(err, "verify_export", "table", t.table)
		}
		if len(ids) == 0 {
			continue
		}
		var found int64
		if err := target.DB.WithContext(ctx).Model(t.model).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return nil, dbError(err, "verify_export", "table", t.table)
		}
		if missing := int64(len(ids)) - found; missing > 0 {
			mismatches = append(mismatches, Mismatch{Table: t.table, Missing: missing})
		}
	}

	return mismatches, nil
}
