package cmd

import (
	"fmt"
)

const banner = `
                _
   _____   ____| |_ __ ___  _ __
  / __\ \ / / _` + "`" + ` | '__/ _ \| '_ \
 | (__ \ V / (_| | | | (_) | |_) |
  \___| \_/ \__,_|_|  \___/| .__/
                           |_|
`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Résumé drop box - Version %s\x1b[0m\n\n", Version)
}
