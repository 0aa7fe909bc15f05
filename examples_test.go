package harrislist

import (
	"fmt"
	"strings"

	"github.com/metailurini/harrislist/reclaim"
)

func ExampleList_Insert() {
	l, _ := NewOrdered[int, string]()
	fmt.Println(l.Insert(1, "one"))
	fmt.Println(l.Insert(2, "two"))
	fmt.Println(l.Insert(1, "uno"))
	fmt.Println(l.Len())
	// Output: true
	// true
	// false
	// 2
}

func ExampleList_Search() {
	l, _ := NewOrdered[int, string]()
	l.Insert(1, "one")
	l.Insert(2, "two")
	val, ok := l.Search(1)
	fmt.Printf("%s %t\n", val, ok)
	_, ok = l.Search(3)
	fmt.Println(ok)
	// Output: one true
	// false
}

func ExampleList_Remove() {
	l, _ := NewOrdered[int, string]()
	l.Insert(1, "one")
	l.Insert(2, "two")
	val, ok := l.Remove(1)
	fmt.Printf("%s %t\n", val, ok)
	fmt.Println(l.Len())
	// Output: one true
	// 1
}

func ExampleNewOrdered() {
	_, err := NewOrdered[string, int]()
	fmt.Println(err)
	// Output: harrislist: new ordered list: key type has no sentinel bounds: string
}

func ExampleNew() {
	less := func(a, b string) bool { return strings.Compare(a, b) < 0 }
	d := reclaim.NewDomain()
	l := New[string, int](less, Range[string]{Min: "", Max: "~"}, WithReclaimer(d))
	l.Insert("b", 2)
	l.Insert("a", 1)
	v, ok := l.Search("b")
	fmt.Println(v, ok)
	// Output: 2 true
}
