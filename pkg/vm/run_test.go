package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teascript/tea/pkg/value"
)

func TestInterpretLiterals(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, v value.Value)
	}{
		{"number", "123;", func(t *testing.T, v value.Value) {
			require.True(t, v.IsNumber())
			require.Equal(t, 123.0, v.AsNumber())
		}},
		{"string", `"hi";`, func(t *testing.T, v value.Value) {
			require.True(t, v.IsObject())
			require.Equal(t, "hi", value.Stringify(v))
		}},
		{"true", "true;", func(t *testing.T, v value.Value) {
			require.True(t, v.IsBool())
			require.True(t, v.AsBool())
		}},
		{"null", "null;", func(t *testing.T, v value.Value) {
			require.True(t, v.IsNull())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, _ := newTestVM()
			result, err := vm.InterpretREPL(tt.source, "<test>")
			require.NoError(t, err)
			tt.check(t, result)
		})
	}
}

func TestInterpretArithmetic(t *testing.T) {
	tests := []struct {
		source   string
		expected float64
	}{
		{"3 + 4;", 7},
		{"10 - 3;", 7},
		{"3 * 4;", 12},
		{"12 / 3;", 4},
		{"2 ** 10;", 1024},
		{"7 % 3;", 1},
		{"(2 + 3) * 4;", 20},
	}
	for _, tt := range tests {
		vm, _ := newTestVM()
		result, err := vm.InterpretREPL(tt.source, "<test>")
		require.NoError(t, err, tt.source)
		require.Equal(t, tt.expected, result.AsNumber(), tt.source)
	}
}

func TestInterpretComparison(t *testing.T) {
	tests := []struct {
		source   string
		expected bool
	}{
		{"3 < 4;", true},
		{"4 < 3;", false},
		{"3 <= 3;", true},
		{"3 == 3;", true},
		{"3 == 4;", false},
	}
	for _, tt := range tests {
		vm, _ := newTestVM()
		result, err := vm.InterpretREPL(tt.source, "<test>")
		require.NoError(t, err, tt.source)
		require.Equal(t, tt.expected, result.AsBool(), tt.source)
	}
}

func TestInterpretVariablesAndScoping(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var x = 10;
		var y = 20;
		{
			var x = 1000;
			y = y + x;
		}
		y;
	`)
	require.Equal(t, 1020.0, result.AsNumber())
}

func TestInterpretIfElse(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var x = 5;
		var out = 0;
		if (x > 3) {
			out = 1;
		} else {
			out = 2;
		}
		out;
	`)
	require.Equal(t, 1.0, result.AsNumber())
}

func TestInterpretWhileLoop(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		sum;
	`)
	require.Equal(t, 10.0, result.AsNumber())
}

func TestInterpretBreakContinue(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var i = 0;
		var sum = 0;
		while (i < 10) {
			i = i + 1;
			if (i == 5) { break; }
			if (i % 2 == 0) { continue; }
			sum = sum + i;
		}
		sum;
	`)
	// i: 1 3 (2,4 skipped by continue) then break at i==5 -> sum = 1+3 = 4
	require.Equal(t, 4.0, result.AsNumber())
}

func TestInterpretFunctionCall(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		function add(a, b) { return a + b; }
		add(3, 4);
	`)
	require.Equal(t, 7.0, result.AsNumber())
}

func TestInterpretFunctionDefaultAndVariadic(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		function greet(name = "world") { return name; }
		greet();
	`)
	require.Equal(t, "world", value.Stringify(result))

	vm2, _ := newTestVM()
	result2 := run(t, vm2, `
		function sum(...nums) {
			var total = 0;
			for (var n in nums) { total = total + n; }
			return total;
		}
		sum(1, 2, 3, 4);
	`)
	require.Equal(t, 10.0, result2.AsNumber())
}

func TestInterpretClosures(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		function makeCounter() {
			var count = 0;
			return () => {
				count = count + 1;
				return count;
			};
		}
		var counter = makeCounter();
		counter();
		counter();
		counter();
	`)
	require.Equal(t, 3.0, result.AsNumber())
}

func TestInterpretClassesAndInheritance(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		class Animal {
			constructor(name) { this.name = name; }
			speak() { return "..."; }
			describe() { return this.name + " says " + this.speak(); }
		}
		class Dog : Animal {
			constructor(name) { super.constructor(name); }
			speak() { return "woof"; }
		}
		var d = Dog("Rex");
		d.describe();
	`)
	require.Equal(t, "Rex says woof", value.Stringify(result))
}

func TestInterpretSwitchStatement(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		function classify(n) {
			switch (n) {
				case 1, 2: return "low";
				case 3: return "mid";
				default: return "other";
			}
		}
		[classify(1), classify(2), classify(3), classify(9)];
	`)
	list, ok := result.AsObject().(*value.List)
	require.True(t, ok)
	require.Equal(t, []string{"low", "low", "mid", "other"}, stringifyAll(list.Items))
}

func TestInterpretForInOverList(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var total = 0;
		for (var x in [1, 2, 3, 4]) {
			total = total + x;
		}
		total;
	`)
	require.Equal(t, 10.0, result.AsNumber())
}

func TestInterpretForInOverRange(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var total = 0;
		for (var x in 1..5) {
			total = total + x;
		}
		total;
	`)
	require.Equal(t, 10.0, result.AsNumber())
}

func TestInterpretForInOverMap(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var m = {"a": 1, "b": 2, "c": 3};
		var total = 0;
		for (var k, v in m) {
			total = total + v;
		}
		total;
	`)
	require.Equal(t, 6.0, result.AsNumber())
}

func TestInterpretListAndMapLiterals(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var list = [1, 2, 3];
		var m = {"x": 10};
		list[1] + m["x"];
	`)
	require.Equal(t, 12.0, result.AsNumber())
}

func TestInterpretDestructuring(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		var [a, b, ...rest] = [1, 2, 3, 4, 5];
		a + b + rest[0] + rest[1] + rest[2];
	`)
	require.Equal(t, 15.0, result.AsNumber())
}

func TestInterpretOperatorOverload(t *testing.T) {
	vm, _ := newTestVM()
	result := run(t, vm, `
		class Vector {
			constructor(x, y) { this.x = x; this.y = y; }
			+(other) { return Vector(this.x + other.x, this.y + other.y); }
		}
		var v = Vector(1, 2) + Vector(3, 4);
		v.x + v.y;
	`)
	require.Equal(t, 10.0, result.AsNumber())
}

func TestInterpretStackOverflowIsRuntimeError(t *testing.T) {
	vm, _ := newTestVM()
	_, err := vm.Interpret(`
		function loop() { return loop(); }
		loop();
	`, "<test>")
	require.Error(t, err)
}

func stringifyAll(items []value.Value) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = value.Stringify(v)
	}
	return out
}
