package output_test

import (
	"os"

	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/output"

	"github.com/fatih/color"
)

func ExamplePrinter_KeyValue() {
	color.NoColor = true
	p := output.New(os.Stdout, os.Stdout, constants.OutputText)

	p.KeyValue("id", "web")
	p.KeyValue("status", output.StatusColor("Running"))
	// Output:
	//   id: web
	//   status: Running
}

func ExamplePrinter_Infof() {
	color.NoColor = true
	p := output.New(os.Stdout, os.Stdout, constants.OutputText)

	p.Infof("Starting workload %s with image %s...", "web", "nginx")
	p.Successf("Workload %s started", "web")
	// Output:
	// → Starting workload web with image nginx...
	// ✓ Workload web started
}

func ExamplePrinter_Render_text() {
	color.NoColor = true
	p := output.New(os.Stdout, os.Stdout, constants.OutputText)

	_ = p.Render([]byte(`{"id":"web","status":"Running","cpu_usage":1,"memory_usage":512}`))
	// Output:
	//   cpu_usage: 1
	//   id: web
	//   memory_usage: 512
	//   status: Running
}

func ExamplePrinter_Render_json() {
	p := output.New(os.Stdout, os.Stdout, constants.OutputJSON)

	_ = p.Render([]byte(`{"status":"Created","name":"photos"}`))
	// Output:
	// {
	//   "name": "photos",
	//   "status": "Created"
	// }
}

func ExamplePrinter_Render_yaml() {
	p := output.New(os.Stdout, os.Stdout, constants.OutputYAML)

	_ = p.Render([]byte(`{"buckets":["logs","photos"]}`))
	// Output:
	// buckets:
	//   - logs
	//   - photos
}

func ExamplePrinter_List() {
	color.NoColor = true
	p := output.New(os.Stdout, os.Stdout, constants.OutputText)

	p.List([]string{"logs", "photos"})
	// Output:
	//   • logs
	//   • photos
}
