package cmd

import (
	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/zerocli"

	"github.com/spf13/cobra"
)

func (p *parser) storeCmd() *cobra.Command {
	var create zerocli.StoreCreate
	createCmd := p.leaf("create", "Create a bucket", func() (zerocli.Command, error) {
		return create, nil
	})
	createCmd.Flags().StringVarP(&create.Bucket, "name", "n", "", "Bucket name")
	required(createCmd, "name")

	lsCmd := p.leaf("ls", "List buckets", func() (zerocli.Command, error) {
		return zerocli.StoreList{}, nil
	})

	return group("store", "Object storage (ZeroStore)", createCmd, lsCmd)
}

func (p *parser) dbCmd() *cobra.Command {
	var create zerocli.DBCreate
	createCmd := p.leaf("create", "Create a table", func() (zerocli.Command, error) {
		return create, nil
	})
	createCmd.Flags().StringVarP(&create.Table, "name", "n", "", "Table name")
	createCmd.Flags().StringVarP(&create.PK, "pk", "p", constants.DefaultTablePK, "Partition key name")
	required(createCmd, "name")

	var put zerocli.DBPut
	putCmd := p.leaf("put", "Insert or replace an item", func() (zerocli.Command, error) {
		return put, nil
	})
	putCmd.Flags().StringVarP(&put.Table, "name", "n", "", "Table name")
	putCmd.Flags().StringVar(&put.PKValue, "pk-value", "", "Partition key value")
	putCmd.Flags().StringVar(&put.Item, "item", "", "Item as a JSON object")
	required(putCmd, "name", "pk-value", "item")

	lsCmd := p.leaf("ls", "List tables", func() (zerocli.Command, error) {
		return zerocli.DBList{}, nil
	})

	return group("db", "Key-value tables (ZeroDB)", createCmd, putCmd, lsCmd)
}

func (p *parser) funcCmd() *cobra.Command {
	var deploy zerocli.FuncDeploy
	deployCmd := p.leaf("deploy", "Deploy a function", func() (zerocli.Command, error) {
		return deploy, nil
	})
	deployCmd.Flags().StringVarP(&deploy.Function, "name", "n", "", "Function name")
	deployCmd.Flags().StringVarP(&deploy.Code, "code", "c", "", "Path to the source file, or inline code")
	deployCmd.Flags().StringVar(&deploy.Handler, "handler", "", "Handler, e.g. main.handler or index.py")
	deployCmd.Flags().BoolVar(&deploy.Watch, "watch", false, "Redeploy whenever the source file changes")
	required(deployCmd, "name", "code", "handler")

	var invoke zerocli.FuncInvoke
	invokeCmd := p.leaf("invoke", "Invoke a function", func() (zerocli.Command, error) {
		return invoke, nil
	})
	invokeCmd.Flags().StringVarP(&invoke.Function, "name", "n", "", "Function name")
	invokeCmd.Flags().StringVarP(&invoke.Payload, "payload", "p", "{}", "JSON payload")
	required(invokeCmd, "name")

	lsCmd := p.leaf("ls", "List functions", func() (zerocli.Command, error) {
		return zerocli.FuncList{}, nil
	})

	return group("func", "Serverless functions (ZeroFunc)", deployCmd, invokeCmd, lsCmd)
}

func (p *parser) queueCmd() *cobra.Command {
	var create zerocli.QueueCreate
	createCmd := p.leaf("create", "Create a queue", func() (zerocli.Command, error) {
		return create, nil
	})
	createCmd.Flags().StringVarP(&create.Queue, "name", "n", "", "Queue name")
	required(createCmd, "name")

	var send zerocli.QueueSend
	sendCmd := p.leaf("send", "Send a message", func() (zerocli.Command, error) {
		return send, nil
	})
	sendCmd.Flags().StringVarP(&send.Queue, "name", "n", "", "Queue name")
	sendCmd.Flags().StringVarP(&send.Body, "body", "b", "", "Message body")
	required(sendCmd, "name", "body")

	var receive zerocli.QueueReceive
	receiveCmd := p.leaf("receive", "Receive the oldest visible message", func() (zerocli.Command, error) {
		return receive, nil
	})
	receiveCmd.Flags().StringVarP(&receive.Queue, "name", "n", "", "Queue name")
	required(receiveCmd, "name")

	var del zerocli.QueueDelete
	deleteCmd := p.leaf("delete", "Delete a received message", func() (zerocli.Command, error) {
		return del, nil
	})
	deleteCmd.Flags().StringVarP(&del.Queue, "name", "n", "", "Queue name")
	deleteCmd.Flags().StringVar(&del.Handle, "handle", "", "Receipt handle")
	required(deleteCmd, "name", "handle")

	lsCmd := p.leaf("ls", "List queues", func() (zerocli.Command, error) {
		return zerocli.QueueList{}, nil
	})

	return group("queue", "Message queues (ZeroQueue)", createCmd, sendCmd, receiveCmd, deleteCmd, lsCmd)
}
