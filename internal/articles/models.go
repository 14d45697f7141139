package articles

import "time"

// Category matches the original portal's three feed sections.
type Category string

const (
	CategoryCarousel Category = "carousel"
	CategoryHotNews  Category = "hotNews"
	CategoryNewsList Category = "newsList"
)

func ValidCategory(c Category) bool {
	switch c {
	case CategoryCarousel, CategoryHotNews, CategoryNewsList:
		return true
	}
	return false
}

type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ArticleInput struct {
	Title    string   `json:"title" validate:"required"`
	Content  string   `json:"content"`
	ImageURL string   `json:"image_url"`
	Category Category `json:"category" validate:"required"`
}
