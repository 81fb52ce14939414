package hooks

import "github.com/Astemirdum/bookstore-storefront/storefront/internal/query"

// Cache keys shared by hooks, pages and the invalidation feed.
func BooksKey() query.Key { return query.Key{"book"} }
func BookListKey(offset, limit int) query.Key { return query.Key{"book", "list", offset, limit} }
func BestKey() query.Key { return query.Key{"book", "best"} }
func SearchKey(keyword string) query.Key { return query.Key{"book", "search", keyword} }
func BookKey(bookID int64) query.Key { return query.Key{"book", bookID} }
func CartKey() query.Key { return query.Key{"cart"} }
func OrdersKey() query.Key { return query.Key{"order"} }
func MyOrdersKey() query.Key { return query.Key{"order", "me"} }
func UsersKey() query.Key { return query.Key{"users"} }
func UserPageKey(page, size int) query.Key { return query.Key{"users", page, size} }
func MeKey() query.Key { return query.Key{"user", "me"} }
