// Command leaderboard читает таблицу участников один раз и печатает рейтинг,
// выгружает его в файл или генерирует инсайты без запуска HTTP-сервера.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
