package cache_test

import (
	"fmt"

	"github.com/IvanBrykalov/sizecache/cache"
)

func ExampleLRU() {
	c := cache.New[string, string](3)
	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("c", "3")
	c.Get("a")      // a becomes most recently used
	c.Put("d", "4") // evicts b

	_, ok := c.Peek("b")
	fmt.Println(c.Keys(), ok, c.Size())
	// Output: [d a c] false 3
}

func ExampleLRU_PutSized() {
	c := cache.New[string, []byte](10)
	c.PutSized("small.png", make([]byte, 3), 3)
	c.PutSized("medium.png", make([]byte, 4), 4)

	fmt.Println(c.PutSized("huge.png", make([]byte, 11), 11)) // never fits
	fmt.Println(c.PutSized("big.png", make([]byte, 5), 5))  // evicts small.png
	fmt.Println(c.Keys(), c.Size())
	// Output:
	// false
	// true
	// [big.png medium.png] 9
}
