// Пакет static — встроенные файлы SPA консоли.
// Собранный фронтенд кладётся в dist/ на этапе сборки образа;
// бинарь консоли раздаёт его сам, без отдельного веб-сервера.
package static

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed dist
var distFS embed.FS

// FS возвращает файловую систему собранного SPA.
func FS() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}

// Handler раздаёт файлы SPA. Неизвестные пути получают index.html:
// маршрутизация внутри SPA выполняется на клиенте.
func Handler() (http.Handler, error) {
	dist, err := FS()
	if err != nil {
		return nil, err
	}

	fileServer := http.FileServer(http.FS(dist))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if _, err := fs.Stat(dist, path); err != nil {
			// SPA fallback: отдаём index.html, клиентский роутер
			// разберёт путь сам.
			r.URL.Path = "/"
		}

		fileServer.ServeHTTP(w, r)
	}), nil
}
