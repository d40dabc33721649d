// Command keyhash prints the bcrypt hash of the shared access key, for use
// as the server's ACCESS_KEY_HASH.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	var key string
	if len(os.Args) > 1 {
		key = os.Args[1]
	} else {
		fmt.Print("Access key: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			log.Fatalf("could not read key: %v", err)
		}
		key = strings.TrimSpace(line)
	}

	if key == "" {
		log.Fatal("access key must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("could not hash key: %v", err)
	}

	fmt.Println(string(hash))
}
