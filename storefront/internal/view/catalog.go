package view

import (
	"context"
	"strings"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

const BestSellerCount = 20

// BestSellers returns the first twenty best sellers.
func BestSellers(ctx context.Context, src BookSource) ([]model.Book, error) {
	books, err := src.Best(ctx)
	if err != nil {
		return nil, err
	}
	if len(books) > BestSellerCount {
		books = books[:BestSellerCount]
	}
	return books, nil
}

// Search looks up books by keyword. A blank keyword matches nothing.
func Search(ctx context.Context, src BookSource, keyword string) ([]model.Book, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []model.Book{}, nil
	}
	return src.Search(ctx, keyword)
}
