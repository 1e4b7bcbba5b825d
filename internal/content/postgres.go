package content

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads the CMS content tables directly. The worker
// never writes to them.
type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Every variant query projects into the same column list so rows scan
// into one Record shape. Columns a variant does not model are selected
// as typed NULLs.
const (
	selectReportsPage = `SELECT r.id, r.title, r.short_description, NULL::text AS summary, NULL::text AS lead,
       r.slug, r.locale, i.name AS industry, '{}'::text[] AS industries,
       COALESCE(g.names, '{}') AS geographies, r.highlight_image,
       r.published_at::text, r.published_on::text, r.release_date::text, r.created_at
  FROM reports r
  LEFT JOIN industries i ON i.id = r.industry_id
  LEFT JOIN LATERAL (
       SELECT array_agg(ge.name ORDER BY ge.name) AS names
         FROM report_geographies rg
         JOIN geographies ge ON ge.id = rg.geography_id
        WHERE rg.report_id = r.id
  ) g ON true
 WHERE r.published_at IS NOT NULL`

	selectBlogsPage = `SELECT b.id, b.title, b.short_description, b.summary, NULL::text AS lead,
       b.slug, b.locale, NULL::text AS industry,
       COALESCE(i.names, '{}') AS industries, '{}'::text[] AS geographies,
       b.highlight_image, b.published_at::text, NULL::text AS published_on,
       NULL::text AS release_date, b.created_at
  FROM blogs b
  LEFT JOIN LATERAL (
       SELECT array_agg(ind.name ORDER BY ind.name) AS names
         FROM blog_industries bi
         JOIN industries ind ON ind.id = bi.industry_id
        WHERE bi.blog_id = b.id
  ) i ON true
 WHERE b.published_at IS NOT NULL`

	selectNewsPage = `SELECT n.id, n.title, n.short_description, NULL::text AS summary, n.lead,
       n.slug, n.locale, NULL::text AS industry,
       COALESCE(i.names, '{}') AS industries, '{}'::text[] AS geographies,
       n.highlight_image, n.published_at::text, n.published_on::text,
       NULL::text AS release_date, n.created_at
  FROM news_articles n
  LEFT JOIN LATERAL (
       SELECT array_agg(ind.name ORDER BY ind.name) AS names
         FROM news_article_industries ni
         JOIN industries ind ON ind.id = ni.industry_id
        WHERE ni.news_article_id = n.id
  ) i ON true
 WHERE n.published_at IS NOT NULL`

	countReports = `SELECT COUNT(*) FROM reports WHERE published_at IS NOT NULL`
	countBlogs   = `SELECT COUNT(*) FROM blogs WHERE published_at IS NOT NULL`
	countNews    = `SELECT COUNT(*) FROM news_articles WHERE published_at IS NOT NULL`
)

type entityQueries struct {
	count string
	page  string
	byID  string
	alias string
}

var queriesByEntity = map[EntityType]entityQueries{
	EntityReport: {count: countReports, page: selectReportsPage, alias: "r"},
	EntityBlog:   {count: countBlogs, page: selectBlogsPage, alias: "b"},
	EntityNews:   {count: countNews, page: selectNewsPage, alias: "n"},
}

func (r *PostgresRepository) CountPublished(ctx context.Context, entity EntityType) (int64, error) {
	q, ok := queriesByEntity[entity]
	if !ok {
		return 0, fmt.Errorf("unknown entity %q", entity)
	}

	var count int64
	if err := r.db.QueryRow(ctx, q.count).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s rows: %w", entity, err)
	}
	return count, nil
}

func (r *PostgresRepository) ListPublished(ctx context.Context, entity EntityType, limit, offset int) ([]Record, error) {
	q, ok := queriesByEntity[entity]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entity)
	}

	sql := fmt.Sprintf("%s ORDER BY %s.id ASC LIMIT $1 OFFSET $2", q.page, q.alias)
	rows, err := r.db.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list %s page: %w", entity, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows, entity)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", entity, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s page: %w", entity, err)
	}
	return records, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, entity EntityType, id int64) (Record, error) {
	q, ok := queriesByEntity[entity]
	if !ok {
		return Record{}, fmt.Errorf("unknown entity %q", entity)
	}

	sql := fmt.Sprintf("%s AND %s.id = $1", q.page, q.alias)
	rows, err := r.db.Query(ctx, sql, id)
	if err != nil {
		return Record{}, fmt.Errorf("get %s %d: %w", entity, id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Record{}, fmt.Errorf("get %s %d: %w", entity, id, err)
		}
		return Record{}, pgx.ErrNoRows
	}
	rec, err := scanRecord(rows, entity)
	if err != nil {
		return Record{}, fmt.Errorf("scan %s %d: %w", entity, id, err)
	}
	return rec, nil
}

func scanRecord(rows pgx.Rows, entity EntityType) (Record, error) {
	rec := Record{Entity: entity}
	err := rows.Scan(
		&rec.ID,
		&rec.Title,
		&rec.ShortDescription,
		&rec.Summary,
		&rec.Lead,
		&rec.Slug,
		&rec.Locale,
		&rec.Industry,
		&rec.Industries,
		&rec.Geographies,
		&rec.HighlightImage,
		&rec.PublishedAt,
		&rec.PublishedOn,
		&rec.ReleaseDate,
		&rec.CreatedAt,
	)
	return rec, err
}
